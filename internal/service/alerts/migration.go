/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package alerts

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/kelseyhightower/envconfig"

	"github.com/skywatch-aero/alertmirror/internal/service/common/db"
)

//go:embed internal/db/migrations/*.sql
var migrations embed.FS

// StartAlertsMigration runs all pending mirror schema migrations. The database
// connection attributes come from the same POSTGRES_* environment variables the
// server uses.
func StartAlertsMigration() error {
	driver, err := iofs.New(migrations, "internal/db/migrations")
	if err != nil {
		return fmt.Errorf("failed to create migrations source: %w", err)
	}

	var dbConfig db.PgConfig
	if err := envconfig.Process("", &dbConfig); err != nil {
		return fmt.Errorf("failed to process database environment variables: %w", err)
	}
	if dbConfig.Password == "" {
		return fmt.Errorf("missing POSTGRES_PASSWORD environment variable")
	}

	if err := db.StartMigration(dbConfig, driver); err != nil {
		return fmt.Errorf("failed to start migrations: %w", err)
	}

	return nil
}
