package models

import (
	"time"
)

// AlertConfiguration represents a record in the alert_configurations table.  Each record mirrors
// one remotely registered alert configuration; alert_id is assigned by the remote service at
// creation and never changes.
type AlertConfiguration struct {
	AlertID      int64      `db:"alert_id"`
	Ident        *string    `db:"ident"`
	Origin       *string    `db:"origin"`
	Destination  *string    `db:"destination"`
	AircraftType *string    `db:"aircraft_type"`
	StartDate    *time.Time `db:"start_date"`
	EndDate      *time.Time `db:"end_date"`
	MaxWeekly    int        `db:"max_weekly"`
	Eta          *int64     `db:"eta"`
	Arrival      bool       `db:"arrival"`
	Departure    bool       `db:"departure"`
	Cancelled    bool       `db:"cancelled"`
	Diverted     bool       `db:"diverted"`
	Filed        bool       `db:"filed"`

	CreatedAt time.Time `db:"created_at"`
}

// TableName returns the name of the table in the database
func (r AlertConfiguration) TableName() string {
	return "alert_configurations"
}

// PrimaryKey returns the primary key of the table
func (r AlertConfiguration) PrimaryKey() string {
	return "alert_id"
}

// OnConflict returns the column or constraint to be used in the UPSERT operation
func (r AlertConfiguration) OnConflict() string {
	return "alert_configurations_pkey"
}

// FilterTuple returns the dedup identity of the configuration.  Two configurations are considered
// logical duplicates when all four filter fields match exactly, including nil against nil.
func (r AlertConfiguration) FilterTuple() [4]string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return "v:" + *s
	}
	return [4]string{deref(r.Ident), deref(r.Origin), deref(r.Destination), deref(r.AircraftType)}
}
