//	@title			vidstore API
//	@version		1.0
//	@description	Uploads videos to an S3 bucket and lists, downloads and deletes them.
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ldynamics/vidstore/internal/config"
	"github.com/ldynamics/vidstore/internal/httpserver"
	"github.com/ldynamics/vidstore/internal/storage"
	"github.com/ldynamics/vidstore/internal/video"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("vidstore stopped with error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogging(cfg)

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("object storage init: %w", err)
	}

	// Wire dependencies: store → gateway → router
	gw, err := video.NewGateway(store, video.Config{
		Namespace:  cfg.StorageNamespace,
		StagingDir: cfg.StagingDir,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpserver.NewRouter(cfg, gw),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Str("bucket", cfg.StorageBucket).
			Str("namespace", cfg.StorageNamespace).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}
	log.Info().Msg("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func newStore(cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory object store; uploads are lost on restart")
		return storage.NewMemoryStore("memory://" + cfg.StorageBucket), nil
	}

	store, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:   cfg.StorageEndpoint,
		Region:     cfg.StorageRegion,
		AccessKey:  cfg.StorageAccessKey,
		SecretKey:  cfg.StorageSecretKey,
		Bucket:     cfg.StorageBucket,
		UseSSL:     cfg.StorageUseSSL,
		PublicBase: cfg.StoragePublicBase,
	})
	if err != nil {
		return nil, err
	}

	if cfg.StorageCreateBucket {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}
