package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/config"
	"github.com/crucial707/timetable-api/internal/logging"
	"github.com/crucial707/timetable-api/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()
	logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the store FIRST
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := openBackend(connectCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			slog.Warn("closing store", "error", err)
		}
	}()

	svc := newServices(store)

	done := make(chan struct{})
	if cfg.AuditExportSchedule != "" {
		exporter := audit.NewExporter(store.audit, cfg.AuditExportPath, cfg.AuditExportBatch,
			audit.WithSettleWindow(time.Duration(cfg.AuditExportSettleSeconds)*time.Second))
		go func() {
			defer close(done)
			err := scheduler.Run(ctx, cfg.AuditExportSchedule, "audit-export", func(ctx context.Context) error {
				_, err := exporter.Run(ctx)
				return err
			})
			if err != nil {
				slog.Error("audit export scheduler", "error", err)
			}
		}()
	} else {
		close(done)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server LAST
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "store", cfg.StoreDriver, "tls", cfg.TLSEnabled())
		if cfg.TLSEnabled() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			stop()
			<-done
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-done
	return nil
}
