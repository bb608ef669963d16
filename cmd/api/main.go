package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewilliams-labs/crossfade/internal/adapters/memory"
	"github.com/ewilliams-labs/crossfade/internal/adapters/rest"
	"github.com/ewilliams-labs/crossfade/internal/adapters/spotify"
	"github.com/ewilliams-labs/crossfade/internal/adapters/sqlite"
	"github.com/ewilliams-labs/crossfade/internal/config"
	"github.com/ewilliams-labs/crossfade/internal/core/services"
	"github.com/ewilliams-labs/crossfade/internal/logging"
	"github.com/ewilliams-labs/crossfade/internal/worker"
)

func main() {
	// 1. Configuration. Crash early if required config is missing.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize driven adapters.
	repo := memory.NewRepository()

	var archiveQueue services.Archiver
	if cfg.Storage.Path != "" {
		archive, err := sqlite.NewArchive(cfg.Storage.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize archive")
		}
		defer archive.Close()

		// Warm the session store so active sets survive a restart.
		snapshots, err := archive.Snapshots(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load archived sets")
		}
		for _, sess := range snapshots {
			if err := repo.Put(ctx, sess); err != nil {
				logger.Warn().Err(err).Str("user_id", sess.UserID).Msg("failed to restore set")
			}
		}
		if len(snapshots) > 0 {
			logger.Info().Int("sets", len(snapshots)).Msg("restored archived sets")
		}

		pool := worker.NewPool(archive, cfg.Storage.QueueSize, logger)
		pool.Start(cfg.Storage.Workers)
		defer pool.Stop()
		archiveQueue = pool
	}

	source, err := spotify.NewClient(ctx, spotify.Config{
		ClientID:          cfg.Spotify.ClientID,
		ClientSecret:      cfg.Spotify.ClientSecret,
		SearchLimit:       cfg.Spotify.SearchLimit,
		RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize spotify client")
	}

	// 3. Initialize the core service and the driving adapter.
	svc := services.NewSetService(source, repo, archiveQueue, logger, services.Options{
		TopN:          cfg.Engine.TopN,
		BPMTolerance:  cfg.Engine.BPMTolerance,
		SourceTimeout: cfg.Engine.SourceTimeout,
	})
	handler := rest.NewHandler(svc, logger)

	// 4. Start the server.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("crossfade api listening")
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}
}
