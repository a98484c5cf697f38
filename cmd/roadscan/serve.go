package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/roadscan/internal/di"
	"github.com/aristath/roadscan/internal/scheduler"
	"github.com/aristath/roadscan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, event stream and background jobs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := current.log
	cfg := current.cfg

	log.Info().Msg("Starting roadscan")

	container, err := current.wire()
	if err != nil {
		return err
	}

	sched := scheduler.New(log)
	jobs, err := di.RegisterJobs(container, sched, cfg, log)
	if err != nil {
		_ = container.Close(context.Background())
		return err
	}
	// Surface an oversized WAL left by a previous process before the first tick
	if err := sched.RunNow(jobs.WALCheckpoints); err != nil {
		log.Warn().Err(err).Msg("Startup WAL check failed")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	}

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	// In-flight requests and scans get up to 30 seconds; a record being
	// written when the deadline hits still finishes its single INSERT
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop cleanly")
	}

	log.Info().Msg("Server stopped")
	return runErr
}
