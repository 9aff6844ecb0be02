// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package aeroapi

import "context"

// AlertClientInterface is implemented by Client and stubbed in tests.
type AlertClientInterface interface {
	CreateAlert(ctx context.Context, payload AlertPayload) (MutationResult, error)
	ModifyAlert(ctx context.Context, alertID int64, payload AlertPayload) (MutationResult, error)
	DeleteAlert(ctx context.Context, alertID int64) (MutationResult, error)
	ListAlerts(ctx context.Context) ([]RemoteAlert, error)
}
