/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
)

// MigrationsTable is where the migrate library tracks which migrations have run.
const MigrationsTable = "schema_migrations"

// migrationLogger routes the migrate library's output through slog.
type migrationLogger struct{}

func (migrationLogger) Printf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...))
}

func (migrationLogger) Verbose() bool {
	return true
}

// StartMigration applies every pending migration from source against the configured database.
// A SIGINT or SIGTERM stops the run after the current migration finishes rather than
// mid-statement.
func StartMigration(pgc PgConfig, source source.Driver) error {
	m, err := newMigrate(pgc, source)
	if err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		slog.Info("Received shutdown signal, stopping migration gracefully")
		m.GracefulStop <- true
	}()

	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Migrations completed successfully", "took", time.Since(start).String())
	return nil
}

// newMigrate builds a migrate instance over the pgx5 database driver.
// https://github.com/golang-migrate/migrate/tree/master/database/pgx/v5
func newMigrate(pgc PgConfig, source source.Driver) (*migrate.Migrate, error) {
	connStr := fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s&connect_timeout=10&x-migrations-table=%s",
		pgc.User, pgc.Password, pgc.Host, pgc.Port, pgc.Database, pgc.SSLMode, MigrationsTable)

	m, err := migrate.NewWithSourceInstance("iofs", source, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrationLogger{}

	return m, nil
}
