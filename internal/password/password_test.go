package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	matches, err := Verify(encoded, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, matches)

	matches, err = Verify(encoded, "correct horse battery stapl")
	require.NoError(t, err)
	assert.False(t, matches)
}

func TestHashProducesDistinctSalts(t *testing.T) {
	first, err := Hash("secret")
	require.NoError(t, err)

	second, err := Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two digests of the same password should differ by salt")

	for _, encoded := range []string{first, second} {
		matches, err := Verify(encoded, "secret")
		require.NoError(t, err)
		assert.True(t, matches)
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"plaintext", "secret"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5"},
		{"wrong version", "$argon2id$v=16$m=65536,t=3,p=2$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5"},
		{"bad parameters", "$argon2id$v=19$m=0,t=0,p=0$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5"},
		{"oversized memory", "$argon2id$v=19$m=999999999,t=3,p=2$c2FsdHNhbHQc2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"bad base64 salt", "$argon2id$v=19$m=65536,t=3,p=2$!!!$a2V5a2V5a2V5a2V5a2V5"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Verify(testCase.encoded, "whatever")
			assert.ErrorIs(t, err, ErrMalformedHash)
		})
	}
}
