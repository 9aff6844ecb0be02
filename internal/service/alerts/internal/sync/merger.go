// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package sync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/repo"
)

// Provenance values of a merged configuration.
const (
	ProvenanceApp      = "app"
	ProvenanceExternal = "external"
)

// MergedConfiguration is one entry of the unified listing: a mirrored
// configuration tagged app, or one observed only in the remote listing tagged
// external. Dates are rendered back into their YYYY-MM-DD wire form.
type MergedConfiguration struct {
	AlertID      int64               `json:"alert_id"`
	Provenance   string              `json:"provenance"`
	Ident        *string             `json:"ident"`
	Origin       *string             `json:"origin"`
	Destination  *string             `json:"destination"`
	AircraftType *string             `json:"aircraft_type"`
	Start        *string             `json:"start"`
	End          *string             `json:"end"`
	MaxWeekly    int                 `json:"max_weekly"`
	Eta          *int64              `json:"eta"`
	Events       aeroapi.AlertEvents `json:"events"`
}

// ReconciliationMerger produces the unified configuration listing from the
// mirror and the remote service.
type ReconciliationMerger struct {
	client     aeroapi.AlertClientInterface
	repository repo.AlertRepositoryInterface
}

func NewReconciliationMerger(client aeroapi.AlertClientInterface, repository repo.AlertRepositoryInterface) *ReconciliationMerger {
	return &ReconciliationMerger{client: client, repository: repository}
}

// ListAll reads both sides in parallel and merges them, mirrored rows first.
// An id present in the mirror is always reported app, never twice. Both sides
// must answer: a partial view would silently misreport provenance, so either
// failure fails the whole call.
func (m *ReconciliationMerger) ListAll(ctx context.Context) ([]MergedConfiguration, error) {
	var (
		mirrored []models.AlertConfiguration
		remote   []aeroapi.RemoteAlert
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		mirrored, err = m.repository.GetAlertConfigurations(groupCtx)
		if err != nil {
			return fmt.Errorf("failed to read mirrored configurations: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		remote, err = m.client.ListAlerts(groupCtx)
		if err != nil {
			return &UnreachableError{Err: err}
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := make([]MergedConfiguration, 0, len(mirrored)+len(remote))
	mirroredIDs := make(map[int64]struct{}, len(mirrored))
	for _, configuration := range mirrored {
		mirroredIDs[configuration.AlertID] = struct{}{}
		merged = append(merged, mergedFromMirror(configuration))
	}
	for _, alert := range remote {
		if _, ok := mirroredIDs[alert.ID]; ok {
			continue
		}
		merged = append(merged, mergedFromRemote(alert))
	}

	return merged, nil
}

func mergedFromMirror(configuration models.AlertConfiguration) MergedConfiguration {
	return MergedConfiguration{
		AlertID:      configuration.AlertID,
		Provenance:   ProvenanceApp,
		Ident:        configuration.Ident,
		Origin:       configuration.Origin,
		Destination:  configuration.Destination,
		AircraftType: configuration.AircraftType,
		Start:        formatDate(configuration.StartDate),
		End:          formatDate(configuration.EndDate),
		MaxWeekly:    configuration.MaxWeekly,
		Eta:          configuration.Eta,
		Events: aeroapi.AlertEvents{
			Arrival:   configuration.Arrival,
			Departure: configuration.Departure,
			Cancelled: configuration.Cancelled,
			Diverted:  configuration.Diverted,
			Filed:     configuration.Filed,
		},
	}
}

// mergedFromRemote synthesizes the external view of a configuration never
// mirrored locally. The remote listing does not carry the weekly quota, so
// max_weekly reports the service default.
func mergedFromRemote(alert aeroapi.RemoteAlert) MergedConfiguration {
	return MergedConfiguration{
		AlertID:      alert.ID,
		Provenance:   ProvenanceExternal,
		Ident:        alert.Ident,
		Origin:       alert.Origin,
		Destination:  alert.Destination,
		AircraftType: alert.AircraftType,
		Start:        alert.Start,
		End:          alert.End,
		MaxWeekly:    DefaultMaxWeekly,
		Eta:          alert.Eta,
		Events:       alert.Events,
	}
}
