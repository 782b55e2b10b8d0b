package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Eroleice/Quant-Cat/internal/di"
	"github.com/Eroleice/Quant-Cat/internal/domain"
	"github.com/Eroleice/Quant-Cat/internal/scheduler"
	"github.com/Eroleice/Quant-Cat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the report schedule",
	Long: `Starts the HTTP server and the scheduler, which runs the daily report
on REPORT_SCHEDULE and maintains the provider cache.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "server port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	log.Info().Str("version", version).Msg("Starting Quant-Cat")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	defer container.Close()

	sched := scheduler.New(domain.Shanghai, container.EventBus, log)
	if _, err := di.RegisterJobs(container, cfg, sched, log); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Version:   version,
		CacheDB:   container.ClientDataDB,
		CacheRepo: container.ClientDataRepo,
		Runner:    container.Runner,
		Bus:       container.EventBus,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
		}
	}

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// waits for an in-flight report run
	sched.Stop()

	log.Info().Msg("Server stopped")
	return nil
}
