/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/api"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/audit"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/repo"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/sync"
	common "github.com/skywatch-aero/alertmirror/internal/service/common/api"
	"github.com/skywatch-aero/alertmirror/internal/service/common/api/middleware"
	"github.com/skywatch-aero/alertmirror/internal/service/common/db"
)

// Alert server config values
const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 120 * time.Second
)

// Serve starts the alert mirror server
func Serve(config *api.AlertServerConfig) error {
	slog.Info("Starting alert mirror server")

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-shutdown
		slog.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	// Init DB client
	pool, err := db.NewPgxPool(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer func() {
		slog.Info("Closing DB connection")
		pool.Close()
	}()

	// Init the repository
	repository := &repo.AlertsRepository{
		Db: pool,
	}

	// Init the remote service client
	client := aeroapi.NewClient(config.AeroAPI)

	defaultEvents, err := config.DefaultEventFlags()
	if err != nil {
		return fmt.Errorf("failed to parse default event flags: %w", err)
	}

	coordinator := sync.NewSyncCoordinator(client, repository, defaultEvents)
	merger := sync.NewReconciliationMerger(client, repository)
	auditor := audit.NewAuditor(client, repository)

	// Init server
	// Create the handler
	server := api.AlertsServer{
		Coordinator:      coordinator,
		Merger:           merger,
		AlertsRepository: repository,
	}

	serverMux := http.NewServeMux()
	server.RegisterRoutes(serverMux)

	router := common.NewErrorJsonifier(serverMux)
	handler := middleware.ChainHandlers(router,
		middleware.TrailingSlashStripper(),
		middleware.LogDuration(),
	)

	// Server config
	srv := &http.Server{
		Handler:      handler,
		Addr:         config.Listener.Address,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog: slog.NewLogLogger(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
		}), slog.LevelError),
	}

	// Start the reconciliation audit scheduler
	auditErrors := make(chan error, 1)
	if config.AuditInterval > 0 {
		go func() {
			slog.Info("Starting reconciliation audit")
			if err := auditor.RunAuditScheduler(ctx, config.AuditInterval); err != nil {
				auditErrors <- err
			}
		}()
	} else {
		slog.Info("Reconciliation audit disabled by configuration")
	}

	// Start server
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("Listening on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		// Cancel the context in case it wasn't already canceled
		cancel()
		// Shutdown the http server
		slog.Info("Shutting down server")
		if err := common.GracefulShutdown(srv); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
	}()

	// Blocking select
	select {
	case err := <-serverErrors:
		return fmt.Errorf("error starting server: %w", err)
	case err := <-auditErrors:
		return fmt.Errorf("error running reconciliation audit: %w", err)
	case <-ctx.Done():
		slog.Info("Process shutting down")
	}

	return nil
}
