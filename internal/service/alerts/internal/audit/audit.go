// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/repo"
)

// DefaultInterval is how often the audit runs when not configured otherwise.
const DefaultInterval = 15 * time.Minute

// Auditor periodically verifies that every mirrored configuration still exists
// remotely. A failed local delete leaves the mirror claiming a configuration
// the remote service no longer has; the audit records those into the
// divergence ledger. It reports, never repairs.
type Auditor struct {
	client     aeroapi.AlertClientInterface
	repository repo.AlertRepositoryInterface
}

func NewAuditor(client aeroapi.AlertClientInterface, repository repo.AlertRepositoryInterface) *Auditor {
	return &Auditor{client: client, repository: repository}
}

// RunAuditScheduler runs audit passes at regular intervals until the context
// is canceled. This function blocks until the context is canceled and returns
// nil on shutdown. A non-positive interval disables the audit entirely.
func (a *Auditor) RunAuditScheduler(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		slog.Info("Reconciliation audit disabled")
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Reconciliation audit scheduler started", "interval", interval.String())

	for {
		select {
		case <-ticker.C:
			slog.Info("Running scheduled reconciliation audit")
			if err := a.RunOnce(ctx); err != nil {
				slog.Error("failed to audit the mirror against the remote service", "error", err)
				// Keep running even if a pass fails
			}
		case <-ctx.Done():
			slog.Info("Reconciliation audit scheduler shutting down")
			return nil
		}
	}
}

// RunOnce performs a single audit pass. An unreachable remote skips the pass:
// recording divergence on a transient network failure would flap the ledger.
// Ids that exist only remotely are external configurations, not divergence.
func (a *Auditor) RunOnce(ctx context.Context) error {
	remote, err := a.client.ListAlerts(ctx)
	if err != nil {
		slog.Warn("Skipping audit pass, remote alert listing unavailable", "error", err)
		return nil
	}

	mirrored, err := a.repository.GetAlertConfigurations(ctx)
	if err != nil {
		return fmt.Errorf("failed to read mirrored configurations: %w", err)
	}

	remoteIDs := make(map[int64]struct{}, len(remote))
	for _, alert := range remote {
		remoteIDs[alert.ID] = struct{}{}
	}

	var orphaned []models.AlertConfiguration
	for _, configuration := range mirrored {
		if _, ok := remoteIDs[configuration.AlertID]; !ok {
			orphaned = append(orphaned, configuration)
		}
	}

	if len(orphaned) == 0 {
		slog.Info("Audit pass found no divergence", "mirrored", len(mirrored), "remote", len(remote))
		return nil
	}

	recorded, err := a.recordOrphans(ctx, orphaned)
	if err != nil {
		return err
	}

	slog.Warn("Audit pass found mirrored configurations missing remotely",
		"orphaned", len(orphaned), "newlyRecorded", recorded)
	return nil
}

// recordOrphans appends one audit divergence per orphaned row in a single
// transaction, skipping ids the ledger already carries from an earlier pass.
func (a *Auditor) recordOrphans(ctx context.Context, orphaned []models.AlertConfiguration) (int, error) {
	existing, err := a.repository.GetDivergenceRecordsByAction(ctx, models.DivergenceActionAudit)
	if err != nil {
		return 0, fmt.Errorf("failed to read existing audit records: %w", err)
	}

	seen := make(map[int64]struct{}, len(existing))
	for _, record := range existing {
		seen[record.AlertID] = struct{}{}
	}

	records := make([]models.DivergenceRecord, 0, len(orphaned))
	for _, configuration := range orphaned {
		if _, ok := seen[configuration.AlertID]; ok {
			continue
		}
		records = append(records, models.DivergenceRecord{
			DivergenceID: uuid.New(),
			AlertID:      configuration.AlertID,
			Action:       models.DivergenceActionAudit,
			Detail:       fmt.Sprintf("mirrored configuration %d no longer exists on the remote service", configuration.AlertID),
		})
	}

	if len(records) == 0 {
		return 0, nil
	}

	err = a.repository.WithTransaction(ctx, func(tx pgx.Tx) error {
		return a.repository.CreateDivergenceRecords(ctx, tx, records)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append audit divergence records: %w", err)
	}

	return len(records), nil
}
