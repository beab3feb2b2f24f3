// Package app initializes and runs the main application service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/itemstore/internal/auth"
	"github.com/patric-chuzhbe/itemstore/internal/config"
	"github.com/patric-chuzhbe/itemstore/internal/db/jsondb"
	"github.com/patric-chuzhbe/itemstore/internal/db/memorystorage"
	"github.com/patric-chuzhbe/itemstore/internal/db/postgresdb"
	"github.com/patric-chuzhbe/itemstore/internal/db/storage"
	"github.com/patric-chuzhbe/itemstore/internal/logger"
	"github.com/patric-chuzhbe/itemstore/internal/router"
	"github.com/patric-chuzhbe/itemstore/internal/service"
)

const (
	storageTypeUnknown = iota
	storageTypePostgresql
	storageTypeFile
	storageTypeMemory
)

// App encapsulates the configuration, HTTP handler and storage backend
// needed to run the item service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up authentication, services and routing
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	if err := logger.Init(app.cfg.LogLevel); err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	signingSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.TokenSigningSecretKey)
	if err != nil {
		return nil, err
	}

	theAuth := auth.New(app.db, signingSecretKey, app.cfg.TokenTTL)
	theService := service.New(app.db)

	app.httpHandler = router.New(theService, theAuth, theAuth)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return storageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return storageTypeFile
	}

	return storageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case storageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case storageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case storageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
