/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"time"
)

// AlertEvent represents a record in the alert_events table.  Events are pushed by the remote
// service when a registered alert fires and are stored append-only; alert_id is kept without a
// foreign key because events may reference configurations deleted since delivery.
type AlertEvent struct {
	ID               int64     `db:"id"`
	ReceiptTime      time.Time `db:"receipt_time"`
	AlertID          *int64    `db:"alert_id"`
	FaFlightID       *string   `db:"fa_flight_id"`
	LongDescription  *string   `db:"long_description"`
	ShortDescription *string   `db:"short_description"`
	Summary          *string   `db:"summary"`
	EventCode        *string   `db:"event_code"`
	Ident            *string   `db:"ident"`
	Registration     *string   `db:"registration"`
	AircraftType     *string   `db:"aircraft_type"`
	Origin           *string   `db:"origin"`
	Destination      *string   `db:"destination"`
}

// TableName returns the name of the table in the database
func (r AlertEvent) TableName() string {
	return "alert_events"
}

// PrimaryKey returns the primary key of the table
func (r AlertEvent) PrimaryKey() string {
	return "id"
}

// OnConflict returns the column or constraint to be used in the UPSERT operation
func (r AlertEvent) OnConflict() string {
	return ""
}
