// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package sync

import (
	"fmt"
	"time"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
)

// DefaultMaxWeekly is the weekly delivery quota applied when a request leaves
// max_weekly unset. The remote listing does not report quotas, so external
// configurations are assumed to carry it as well.
const DefaultMaxWeekly = 1000

// ConfigurationRequest is the caller-facing configuration payload. Optional
// fields are pointers so absent and zero stay distinguishable; defaulting
// happens in one explicit Normalize step instead of scattered fallbacks.
type ConfigurationRequest struct {
	Ident        *string              `json:"ident"`
	Origin       *string              `json:"origin"`
	Destination  *string              `json:"destination"`
	AircraftType *string              `json:"aircraft_type"`
	Start        *string              `json:"start"`
	End          *string              `json:"end"`
	MaxWeekly    *int                 `json:"max_weekly"`
	Events       *aeroapi.AlertEvents `json:"events"`
}

// Normalize fills the documented defaults, max_weekly 1000 and the configured
// default event flag set, and folds empty date strings into absent.
func (r *ConfigurationRequest) Normalize(defaultEvents aeroapi.AlertEvents) {
	if r.MaxWeekly == nil {
		maxWeekly := DefaultMaxWeekly
		r.MaxWeekly = &maxWeekly
	}
	if r.Events == nil {
		events := defaultEvents
		r.Events = &events
	}
	if r.Start != nil && *r.Start == "" {
		r.Start = nil
	}
	if r.End != nil && *r.End == "" {
		r.End = nil
	}
}

// Window parses the validity dates. Absent dates are nil; a malformed one is an
// InvalidRequestError, caught before any remote call.
func (r *ConfigurationRequest) Window() (start, end *time.Time, err error) {
	start, err = parseDate(r.Start, "start")
	if err != nil {
		return nil, nil, err
	}

	end, err = parseDate(r.End, "end")
	if err != nil {
		return nil, nil, err
	}

	return start, end, nil
}

// FilterTuple reports the dedup tuple of the request, encoded the same way as
// the mirrored rows.
func (r *ConfigurationRequest) FilterTuple() [4]string {
	return models.AlertConfiguration{
		Ident:        r.Ident,
		Origin:       r.Origin,
		Destination:  r.Destination,
		AircraftType: r.AircraftType,
	}.FilterTuple()
}

func parseDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("field %q must be a YYYY-MM-DD date, got %q", field, *value)}
	}

	return &parsed, nil
}

// toRemoteShape renders a normalized request into the remote service's payload,
// keeping the event flags nested the way the remote API expects them.
func toRemoteShape(request ConfigurationRequest) aeroapi.AlertPayload {
	payload := aeroapi.AlertPayload{
		Ident:        request.Ident,
		Origin:       request.Origin,
		Destination:  request.Destination,
		AircraftType: request.AircraftType,
		Start:        request.Start,
		End:          request.End,
	}

	if request.MaxWeekly != nil {
		payload.MaxWeekly = *request.MaxWeekly
	}
	if request.Events != nil {
		payload.Events = *request.Events
	}

	return payload
}

// toMirrorShape flattens a normalized request into a mirror row carrying the
// remote-assigned id: event flags become boolean columns and the parsed
// validity window replaces the wire date strings.
func toMirrorShape(request ConfigurationRequest, start, end *time.Time, alertID int64) models.AlertConfiguration {
	record := models.AlertConfiguration{
		AlertID:      alertID,
		Ident:        request.Ident,
		Origin:       request.Origin,
		Destination:  request.Destination,
		AircraftType: request.AircraftType,
		StartDate:    start,
		EndDate:      end,
	}

	if request.MaxWeekly != nil {
		record.MaxWeekly = *request.MaxWeekly
	}
	if request.Events != nil {
		record.Arrival = request.Events.Arrival
		record.Departure = request.Events.Departure
		record.Cancelled = request.Events.Cancelled
		record.Diverted = request.Events.Diverted
		record.Filed = request.Events.Filed
	}

	return record
}

// formatDate renders a date column back into its YYYY-MM-DD wire form.
func formatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}

	formatted := value.Format(time.DateOnly)
	return &formatted
}
