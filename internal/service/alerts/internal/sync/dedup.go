// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package sync

import (
	"context"
	"fmt"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/repo"
)

// DedupChecker guards the create path against configurations duplicating an
// already mirrored one.
type DedupChecker struct {
	repository repo.AlertRepositoryInterface
}

func NewDedupChecker(repository repo.AlertRepositoryInterface) *DedupChecker {
	return &DedupChecker{repository: repository}
}

// FindDuplicate returns the mirrored configuration whose filter tuple (ident,
// origin, destination, aircraft_type) exactly matches the candidate's, or nil.
// Matching is null-safe: an absent filter only pairs with an absent filter, so
// two fully unfiltered configurations duplicate each other. Only the mirror is
// consulted; a duplicate existing solely on the remote side is not detectable
// here.
func (d *DedupChecker) FindDuplicate(ctx context.Context, request ConfigurationRequest) (*models.AlertConfiguration, error) {
	configurations, err := d.repository.GetAlertConfigurations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirrored configurations: %w", err)
	}

	candidate := request.FilterTuple()
	for _, configuration := range configurations {
		if configuration.FilterTuple() == candidate {
			return &configuration, nil
		}
	}

	return nil, nil
}
