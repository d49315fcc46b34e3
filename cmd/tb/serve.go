package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/taskboard/internal/server"
	boardsync "github.com/alfredjeanlab/taskboard/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Serve the board over HTTP while watching the vault",
	GroupID:     "system",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{daemonAnnotation: "true"},
	// The session is opened in RunE so the event stream sees its events.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		hub := server.NewHub()
		scheduler := boardsync.NewScheduler(logger)

		env, err := openEnvironment(cmd.Context(), logger, hub, scheduler)
		if err != nil {
			return err
		}
		app = env
		cfg := env.cfg

		// Start HTTP server.
		srv := server.New(env.session, hub, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the document watcher.
		watchCtx, watchCancel := context.WithCancel(context.Background())
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			if err := newWatcher(env.session).Run(watchCtx); err != nil {
				logger.Error("watcher error", "err", err)
			}
		}()

		// Start the export scheduler if any destinations are configured.
		if cfg.ExportInterval > 0 {
			if dests := exportDestinations(cmd.Context()); len(dests) > 0 {
				scheduler.Start(env.session, dests, cfg.ExportInterval)
				logger.Info("export scheduler started", "interval", cfg.ExportInterval, "destinations", len(dests))
			}
		}

		logger.Info("taskboard server started",
			"board", cfg.BoardPath,
			"http_addr", cfg.HTTPAddr,
			"auth", cfg.AuthToken != "",
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		watchCancel()
		<-watchDone
		logger.Info("watcher stopped")

		scheduler.Stop()

		// Ends open event streams; Shutdown waits for them otherwise.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		logger.Info("shutdown complete")
		return nil
	},
}
