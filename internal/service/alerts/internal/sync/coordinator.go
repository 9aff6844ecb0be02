// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/repo"
	svcutils "github.com/skywatch-aero/alertmirror/internal/service/common/utils"
)

// MutationOutcome is the successful result of a coordinated mutation, rendered
// by the transport into the caller envelope.
type MutationOutcome struct {
	AlertID     int64
	Description string
}

// SyncCoordinator drives the two-system mutation sequence: remote service
// first, local mirror second. It never retries and never compensates; a mirror
// failure after remote success is recorded in the divergence ledger and
// reported to the caller with the remote state spelled out.
type SyncCoordinator struct {
	client        aeroapi.AlertClientInterface
	repository    repo.AlertRepositoryInterface
	dedup         *DedupChecker
	defaultEvents aeroapi.AlertEvents
}

// NewSyncCoordinator wires a coordinator. defaultEvents is the flag set applied
// to create requests that carry no events block.
func NewSyncCoordinator(client aeroapi.AlertClientInterface, repository repo.AlertRepositoryInterface, defaultEvents aeroapi.AlertEvents) *SyncCoordinator {
	return &SyncCoordinator{
		client:        client,
		repository:    repository,
		dedup:         NewDedupChecker(repository),
		defaultEvents: defaultEvents,
	}
}

// Create registers a new configuration remotely and mirrors it locally.
func (c *SyncCoordinator) Create(ctx context.Context, request ConfigurationRequest) (MutationOutcome, error) {
	request.Normalize(c.defaultEvents)
	start, end, err := request.Window()
	if err != nil {
		return MutationOutcome{}, err
	}

	duplicate, err := c.dedup.FindDuplicate(ctx, request)
	if err != nil {
		return MutationOutcome{}, fmt.Errorf("failed to check for duplicate configurations: %w", err)
	}
	if duplicate != nil {
		return MutationOutcome{}, &DuplicateConfigurationError{ExistingAlertID: duplicate.AlertID}
	}

	result, err := c.client.CreateAlert(ctx, toRemoteShape(request))
	if err != nil {
		return MutationOutcome{}, &UnreachableError{Err: err}
	}
	if !result.OK {
		return MutationOutcome{}, &RemoteRejectedError{Status: result.Status, Detail: result.Detail}
	}

	record := toMirrorShape(request, start, end, result.AlertID)
	if _, err := c.repository.UpsertAlertConfiguration(ctx, record); err != nil {
		return MutationOutcome{}, c.reportDivergence(ctx, result.AlertID, models.DivergenceActionCreate, err)
	}

	return MutationOutcome{
		AlertID:     result.AlertID,
		Description: fmt.Sprintf("Request sent successfully with alert id %d", result.AlertID),
	}, nil
}

// Modify replaces the configuration remotely and updates the mirror row.
// Modifying a configuration that was never mirrored (external provenance) only
// touches the remote side; that is not divergence, the mirror stays a subset.
func (c *SyncCoordinator) Modify(ctx context.Context, alertID int64, request ConfigurationRequest) (MutationOutcome, error) {
	request.Normalize(c.defaultEvents)
	start, end, err := request.Window()
	if err != nil {
		return MutationOutcome{}, err
	}

	result, err := c.client.ModifyAlert(ctx, alertID, toRemoteShape(request))
	if err != nil {
		return MutationOutcome{}, &UnreachableError{Err: err}
	}
	if !result.OK {
		return MutationOutcome{}, &RemoteRejectedError{Status: result.Status, Detail: result.Detail}
	}

	record := toMirrorShape(request, start, end, alertID)
	if _, err := c.repository.UpdateAlertConfiguration(ctx, alertID, record); err != nil {
		if errors.Is(err, svcutils.ErrNotFound) {
			return MutationOutcome{
				AlertID:     alertID,
				Description: fmt.Sprintf("Request sent successfully, alert configuration %d has been modified", alertID),
			}, nil
		}
		return MutationOutcome{}, c.reportDivergence(ctx, alertID, models.DivergenceActionModify, err)
	}

	return MutationOutcome{
		AlertID:     alertID,
		Description: fmt.Sprintf("Request sent successfully, alert configuration %d has been modified", alertID),
	}, nil
}

// Delete removes the configuration remotely and drops the mirror row. Deleting
// an unmirrored configuration leaves the mirror untouched and succeeds.
func (c *SyncCoordinator) Delete(ctx context.Context, alertID int64) (MutationOutcome, error) {
	result, err := c.client.DeleteAlert(ctx, alertID)
	if err != nil {
		return MutationOutcome{}, &UnreachableError{Err: err}
	}
	if !result.OK {
		return MutationOutcome{}, &RemoteRejectedError{Status: result.Status, Detail: result.Detail}
	}

	if _, err := c.repository.DeleteAlertConfiguration(ctx, alertID); err != nil {
		return MutationOutcome{}, c.reportDivergence(ctx, alertID, models.DivergenceActionDelete, err)
	}

	return MutationOutcome{
		AlertID:     alertID,
		Description: fmt.Sprintf("Request sent successfully, alert configuration %d has been deleted", alertID),
	}, nil
}

// reportDivergence builds the caller-facing divergence failure and appends it
// to the ledger. The ledger write is best effort: losing it is logged, never
// allowed to mask the primary report.
func (c *SyncCoordinator) reportDivergence(ctx context.Context, alertID int64, action string, cause error) error {
	divergence := &LocalPersistenceError{AlertID: alertID, Action: action, Err: cause}
	slog.Error("Mirror write failed after remote mutation succeeded",
		"alertID", alertID, "action", action, "cause", persistenceCause(cause))

	record := models.DivergenceRecord{
		DivergenceID: uuid.New(),
		AlertID:      alertID,
		Action:       action,
		Detail:       divergence.Error(),
	}
	if _, err := c.repository.CreateDivergenceRecord(ctx, record); err != nil {
		slog.Error("failed to append divergence record", "alertID", alertID, "action", action, "error", err)
	}

	return divergence
}
