// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0

// Package sync coordinates alert-configuration mutations across the remote
// alerting service and the local mirror. The two systems are not transactional
// with each other: every operation mutates the remote service first and the
// mirror second, and a failure between the two steps is reported as divergence
// rather than rolled back.
package sync

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
)

// InvalidRequestError reports a payload refused before any remote or mirror
// interaction.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return e.Reason
}

// DuplicateConfigurationError reports a create whose filter tuple already has a
// mirrored configuration. No remote call was made.
type DuplicateConfigurationError struct {
	ExistingAlertID int64
}

func (e *DuplicateConfigurationError) Error() string {
	return fmt.Sprintf("a configuration with the same ident, origin, destination and aircraft_type already exists with alert id %d", e.ExistingAlertID)
}

// RemoteRejectedError reports the remote service refusing a mutation. Nothing
// was written on either side, so both systems still agree.
type RemoteRejectedError struct {
	Status int
	Detail string
}

func (e *RemoteRejectedError) Error() string {
	return e.Detail
}

// UnreachableError reports that the remote outcome is unknown or unusable: a
// network failure, a client timeout, or a response the client could not
// interpret.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("remote alerting service unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// LocalPersistenceError reports a mirror write failing after the remote
// mutation already succeeded. The two systems now diverge; the message tells
// the caller what the remote side holds so nobody retries blindly.
type LocalPersistenceError struct {
	AlertID int64
	Action  string
	Err     error
}

func (e *LocalPersistenceError) Error() string {
	switch e.Action {
	case models.DivergenceActionModify:
		return fmt.Sprintf("Database update error, check your database configuration. Alert %d has still been modified remotely and the mirror row is now stale", e.AlertID)
	case models.DivergenceActionDelete:
		return fmt.Sprintf("Database deletion error, check your database configuration. Alert %d has still been deleted remotely and the mirror row remains until purged", e.AlertID)
	default:
		return fmt.Sprintf("Database insertion error, check your database configuration. Alert has still been configured with alert id %d", e.AlertID)
	}
}

func (e *LocalPersistenceError) Unwrap() error {
	return e.Err
}

// persistenceCause renders a mirror failure for logging, surfacing the
// Postgres error class when one is available.
func persistenceCause(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err.Error()
	}

	class := "server error"
	switch {
	case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
		class = "integrity constraint violation"
	case pgerrcode.IsConnectionException(pgErr.Code):
		class = "connection exception"
	case pgerrcode.IsInsufficientResources(pgErr.Code):
		class = "insufficient resources"
	case pgerrcode.IsDataException(pgErr.Code):
		class = "data exception"
	}

	return fmt.Sprintf("%s: %s (SQLSTATE %s)", class, pgErr.Message, pgErr.Code)
}
