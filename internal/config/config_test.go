package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", values.RunAddr)
	assert.Equal(t, "info", values.LogLevel)
	assert.Equal(t, "", values.DBFileName)
	assert.Equal(t, "", values.DatabaseDSN)
	assert.Equal(t, 10*time.Second, values.DBConnectionTimeout)
	assert.Equal(t, 24*time.Hour, values.TokenTTL)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":3000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FILE_STORAGE_PATH", "storage_test.json")
	t.Setenv("DATABASE_DSN", "host=localhost dbname=items")
	t.Setenv("TOKEN_TTL", "1h")

	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", values.RunAddr)
	assert.Equal(t, "debug", values.LogLevel)
	assert.Equal(t, "storage_test.json", values.DBFileName)
	assert.Equal(t, "host=localhost dbname=items", values.DatabaseDSN)
	assert.Equal(t, time.Hour, values.TokenTTL)
}

func TestValidationRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad run address", "SERVER_ADDRESS", "not-an-address"},
		{"bad signing key encoding", "TOKEN_SIGNING_SECRET_KEY", "not base64!"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv(testCase.key, testCase.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}
