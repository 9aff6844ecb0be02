/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"time"

	"github.com/google/uuid"
)

// Divergence actions recorded in the divergence_records table.
const (
	DivergenceActionCreate = "create"
	DivergenceActionModify = "modify"
	DivergenceActionDelete = "delete"
	DivergenceActionAudit  = "audit"
)

// DivergenceRecord represents a record in the divergence_records table.  A record is written
// whenever the remote service accepted a mutation but the mirror write failed, or when the audit
// finds a mirror row with no remote counterpart.  Records are append-only and never repaired
// automatically.
type DivergenceRecord struct {
	DivergenceID uuid.UUID `db:"divergence_id"`
	AlertID      int64     `db:"alert_id"`
	Action       string    `db:"action"`
	Detail       string    `db:"detail"`

	DetectedAt time.Time `db:"detected_at"`
}

// TableName returns the name of the table in the database
func (r DivergenceRecord) TableName() string {
	return "divergence_records"
}

// PrimaryKey returns the primary key of the table
func (r DivergenceRecord) PrimaryKey() string {
	return "divergence_id"
}

// OnConflict returns the column or constraint to be used in the UPSERT operation
func (r DivergenceRecord) OnConflict() string {
	return ""
}
