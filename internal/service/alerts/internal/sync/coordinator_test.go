// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package sync_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/sync"
	svcutils "github.com/skywatch-aero/alertmirror/internal/service/common/utils"
)

var _ = Describe("SyncCoordinator", func() {
	var (
		ctx         context.Context
		client      *fakeAlertClient
		repository  *fakeRepository
		coordinator *sync.SyncCoordinator
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeAlertClient{}
		repository = &fakeRepository{}
		coordinator = sync.NewSyncCoordinator(client, repository, aeroapi.AlertEvents{})
	})

	newRequest := func() sync.ConfigurationRequest {
		return sync.ConfigurationRequest{
			Ident:        strPtr("UAL123"),
			Origin:       strPtr("KSEA"),
			Destination:  strPtr("KJFK"),
			AircraftType: strPtr("B738"),
			Start:        strPtr("2024-01-01"),
			End:          strPtr("2024-02-01"),
		}
	}

	Describe("Create", func() {
		It("mirrors an accepted configuration under the remote-issued id", func() {
			client.createFunc = func(_ context.Context, payload aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				Expect(payload.Ident).To(HaveValue(Equal("UAL123")))
				Expect(payload.Start).To(HaveValue(Equal("2024-01-01")))
				Expect(payload.MaxWeekly).To(Equal(1000), "absent max_weekly takes the documented default")
				Expect(payload.Events).To(Equal(aeroapi.AlertEvents{}), "absent events take the configured default flag set")
				return aeroapi.MutationResult{OK: true, Status: 201, AlertID: 42}, nil
			}

			outcome, err := coordinator.Create(ctx, newRequest())

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.AlertID).To(Equal(int64(42)))
			Expect(outcome.Description).To(Equal("Request sent successfully with alert id 42"))
			Expect(client.createCalls).To(Equal(1))
			Expect(repository.configurations).To(HaveLen(1))

			stored := repository.configurations[0]
			Expect(stored.AlertID).To(Equal(int64(42)))
			Expect(stored.MaxWeekly).To(Equal(1000))
			Expect(stored.Arrival).To(BeFalse())
			Expect(stored.StartDate).NotTo(BeNil())
			Expect(*stored.StartDate).To(BeTemporally("==", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(stored.EndDate).NotTo(BeNil())
			Expect(*stored.EndDate).To(BeTemporally("==", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("applies the configured default event flag set", func() {
			coordinator = sync.NewSyncCoordinator(client, repository, aeroapi.AlertEvents{Arrival: true, Cancelled: true})
			client.createFunc = func(_ context.Context, payload aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				Expect(payload.Events).To(Equal(aeroapi.AlertEvents{Arrival: true, Cancelled: true}))
				return aeroapi.MutationResult{OK: true, Status: 201, AlertID: 43}, nil
			}

			_, err := coordinator.Create(ctx, newRequest())

			Expect(err).NotTo(HaveOccurred())
			Expect(repository.configurations[0].Arrival).To(BeTrue())
			Expect(repository.configurations[0].Cancelled).To(BeTrue())
			Expect(repository.configurations[0].Filed).To(BeFalse())
		})

		It("keeps a caller-provided events block over the default", func() {
			coordinator = sync.NewSyncCoordinator(client, repository, aeroapi.AlertEvents{Arrival: true})
			client.createFunc = func(_ context.Context, payload aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				Expect(payload.Events).To(Equal(aeroapi.AlertEvents{Filed: true}))
				return aeroapi.MutationResult{OK: true, Status: 201, AlertID: 44}, nil
			}

			request := newRequest()
			request.Events = &aeroapi.AlertEvents{Filed: true}

			_, err := coordinator.Create(ctx, request)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects malformed dates before any remote call", func() {
			request := newRequest()
			request.Start = strPtr("01/02/2024")

			_, err := coordinator.Create(ctx, request)

			var invalid *sync.InvalidRequestError
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.Reason).To(ContainSubstring("YYYY-MM-DD"))
			Expect(client.createCalls).To(BeZero())
		})

		It("fails a tuple-matching create without calling the remote service", func() {
			repository.configurations = []models.AlertConfiguration{{
				AlertID:      7,
				Ident:        strPtr("UAL123"),
				Origin:       strPtr("KSEA"),
				Destination:  strPtr("KJFK"),
				AircraftType: strPtr("B738"),
				MaxWeekly:    500,
				Filed:        true,
			}}

			_, err := coordinator.Create(ctx, newRequest())

			var duplicate *sync.DuplicateConfigurationError
			Expect(errors.As(err, &duplicate)).To(BeTrue())
			Expect(duplicate.ExistingAlertID).To(Equal(int64(7)))
			Expect(client.createCalls).To(BeZero())
			Expect(repository.configurations).To(HaveLen(1))
		})

		It("rejects the repeat of a mirrored create with no further network call", func() {
			client.createFunc = func(context.Context, aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 201, AlertID: 42}, nil
			}

			_, err := coordinator.Create(ctx, newRequest())
			Expect(err).NotTo(HaveOccurred())

			_, err = coordinator.Create(ctx, newRequest())

			var duplicate *sync.DuplicateConfigurationError
			Expect(errors.As(err, &duplicate)).To(BeTrue())
			Expect(client.createCalls).To(Equal(1))
			Expect(repository.configurations).To(HaveLen(1))
		})

		It("admits both sides of a create race over the same tuple", func() {
			// Two concurrent creates can both pass the dedup check before
			// either mirror write lands. The frozen listing below replays that
			// interleaving; the accepted outcome is two mirrored logical
			// duplicates with distinct remote ids.
			repository.listFunc = func(context.Context) ([]models.AlertConfiguration, error) {
				return nil, nil
			}
			nextID := int64(42)
			client.createFunc = func(context.Context, aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				id := nextID
				nextID++
				return aeroapi.MutationResult{OK: true, Status: 201, AlertID: id}, nil
			}

			first, err := coordinator.Create(ctx, newRequest())
			Expect(err).NotTo(HaveOccurred())
			second, err := coordinator.Create(ctx, newRequest())
			Expect(err).NotTo(HaveOccurred())

			Expect(first.AlertID).NotTo(Equal(second.AlertID))
			Expect(repository.configurations).To(HaveLen(2))
			Expect(repository.configurations[0].FilterTuple()).To(Equal(repository.configurations[1].FilterTuple()))
		})

		It("fails plainly when the mirror cannot be read for dedup", func() {
			repository.listFunc = func(context.Context) ([]models.AlertConfiguration, error) {
				return nil, fmt.Errorf("connection refused")
			}

			_, err := coordinator.Create(ctx, newRequest())

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to check for duplicate configurations"))
			Expect(client.createCalls).To(BeZero())
		})

		It("reports a remote rejection without touching the mirror", func() {
			client.createFunc = func(context.Context, aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{Status: 400, Detail: "Error code 400 with the following description: no filters set"}, nil
			}

			_, err := coordinator.Create(ctx, newRequest())

			var rejected *sync.RemoteRejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())
			Expect(rejected.Status).To(Equal(400))
			Expect(rejected.Detail).To(Equal("Error code 400 with the following description: no filters set"))
			Expect(repository.configurations).To(BeEmpty())
		})

		It("classifies network failures as unreachable", func() {
			client.createFunc = func(context.Context, aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{}, fmt.Errorf("dial tcp: connection refused")
			}

			_, err := coordinator.Create(ctx, newRequest())

			var unreachable *sync.UnreachableError
			Expect(errors.As(err, &unreachable)).To(BeTrue())
			Expect(repository.configurations).To(BeEmpty())
		})

		It("reports divergence when the mirror write fails after remote success", func() {
			client.createFunc = func(context.Context, aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 201, AlertID: 42}, nil
			}
			repository.upsertFunc = func(context.Context, models.AlertConfiguration) (*models.AlertConfiguration, error) {
				return nil, &pgconn.PgError{Severity: "ERROR", Code: "53300", Message: "too many connections"}
			}

			_, err := coordinator.Create(ctx, newRequest())

			var divergence *sync.LocalPersistenceError
			Expect(errors.As(err, &divergence)).To(BeTrue())
			Expect(divergence.AlertID).To(Equal(int64(42)))
			Expect(divergence.Error()).To(Equal(
				"Database insertion error, check your database configuration. Alert has still been configured with alert id 42"))

			Expect(repository.divergences).To(HaveLen(1))
			ledger := repository.divergences[0]
			Expect(ledger.AlertID).To(Equal(int64(42)))
			Expect(ledger.Action).To(Equal(models.DivergenceActionCreate))
			Expect(ledger.Detail).To(Equal(divergence.Error()))
			Expect(ledger.DivergenceID).NotTo(Equal(uuid.Nil))
		})

		It("does not let a ledger failure mask the divergence report", func() {
			client.createFunc = func(context.Context, aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 201, AlertID: 42}, nil
			}
			repository.upsertFunc = func(context.Context, models.AlertConfiguration) (*models.AlertConfiguration, error) {
				return nil, fmt.Errorf("disk full")
			}
			repository.divergenceErr = fmt.Errorf("ledger unavailable")

			_, err := coordinator.Create(ctx, newRequest())

			var divergence *sync.LocalPersistenceError
			Expect(errors.As(err, &divergence)).To(BeTrue())
			Expect(repository.divergences).To(BeEmpty())
		})
	})

	Describe("Modify", func() {
		BeforeEach(func() {
			repository.configurations = []models.AlertConfiguration{{
				AlertID:   42,
				Ident:     strPtr("UAL123"),
				MaxWeekly: 1000,
			}}
		})

		It("replaces the mirror row after remote acceptance", func() {
			client.modifyFunc = func(_ context.Context, alertID int64, payload aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				Expect(alertID).To(Equal(int64(42)))
				Expect(payload.Origin).To(HaveValue(Equal("KPDX")))
				return aeroapi.MutationResult{OK: true, Status: 204, AlertID: alertID}, nil
			}

			outcome, err := coordinator.Modify(ctx, 42, sync.ConfigurationRequest{
				Origin:    strPtr("KPDX"),
				MaxWeekly: intPtr(200),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.AlertID).To(Equal(int64(42)))
			Expect(outcome.Description).To(Equal("Request sent successfully, alert configuration 42 has been modified"))

			stored := repository.configurations[0]
			Expect(stored.Origin).To(HaveValue(Equal("KPDX")))
			Expect(stored.Ident).To(BeNil(), "fields absent from the request are cleared, not preserved")
			Expect(stored.MaxWeekly).To(Equal(200))
		})

		It("treats modifying an unmirrored configuration as remote-only success", func() {
			client.modifyFunc = func(_ context.Context, alertID int64, _ aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 204, AlertID: alertID}, nil
			}
			repository.updateFunc = func(context.Context, int64, models.AlertConfiguration) (*models.AlertConfiguration, error) {
				return nil, svcutils.ErrNotFound
			}

			outcome, err := coordinator.Modify(ctx, 77, sync.ConfigurationRequest{Origin: strPtr("KPDX")})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.AlertID).To(Equal(int64(77)))
			Expect(repository.divergences).To(BeEmpty())
		})

		It("aborts before the mirror when the remote service rejects the modify", func() {
			client.modifyFunc = func(context.Context, int64, aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{Status: 404, Detail: "Error code 404 with the following description: unknown alert id"}, nil
			}

			_, err := coordinator.Modify(ctx, 42, sync.ConfigurationRequest{Origin: strPtr("KPDX")})

			var rejected *sync.RemoteRejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())
			Expect(repository.updateCalls).To(BeZero())
		})

		It("reports divergence when the mirror update fails", func() {
			client.modifyFunc = func(_ context.Context, alertID int64, _ aeroapi.AlertPayload) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 204, AlertID: alertID}, nil
			}
			repository.updateFunc = func(context.Context, int64, models.AlertConfiguration) (*models.AlertConfiguration, error) {
				return nil, fmt.Errorf("disk full")
			}

			_, err := coordinator.Modify(ctx, 42, sync.ConfigurationRequest{
				Origin:    strPtr("KPDX"),
				MaxWeekly: intPtr(500),
			})

			var divergence *sync.LocalPersistenceError
			Expect(errors.As(err, &divergence)).To(BeTrue())
			Expect(divergence.Error()).To(ContainSubstring("Alert 42 has still been modified remotely"))

			Expect(repository.divergences).To(HaveLen(1))
			Expect(repository.divergences[0].Action).To(Equal(models.DivergenceActionModify))
			Expect(repository.configurations[0].MaxWeekly).To(Equal(1000), "the stale row keeps its pre-modify state")
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			repository.configurations = []models.AlertConfiguration{{AlertID: 42, Ident: strPtr("UAL123")}}
		})

		It("drops the mirror row after remote acceptance", func() {
			client.deleteFunc = func(_ context.Context, alertID int64) (aeroapi.MutationResult, error) {
				Expect(alertID).To(Equal(int64(42)))
				return aeroapi.MutationResult{OK: true, Status: 204, AlertID: alertID}, nil
			}

			outcome, err := coordinator.Delete(ctx, 42)

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Description).To(Equal("Request sent successfully, alert configuration 42 has been deleted"))
			Expect(repository.configurations).To(BeEmpty())
		})

		It("succeeds when nothing was mirrored for the id", func() {
			client.deleteFunc = func(_ context.Context, alertID int64) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 204, AlertID: alertID}, nil
			}

			outcome, err := coordinator.Delete(ctx, 99)

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.AlertID).To(Equal(int64(99)))
			Expect(repository.configurations).To(HaveLen(1), "unrelated mirror rows stay put")
		})

		It("aborts when the remote service rejects the delete", func() {
			client.deleteFunc = func(context.Context, int64) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{Status: 404, Detail: "Error code 404 with the following description: unknown alert id"}, nil
			}

			_, err := coordinator.Delete(ctx, 42)

			var rejected *sync.RemoteRejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())
			Expect(repository.deleteCalls).To(BeZero())
			Expect(repository.configurations).To(HaveLen(1))
		})

		It("classifies network failure on delete as unreachable", func() {
			client.deleteFunc = func(context.Context, int64) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{}, fmt.Errorf("dial tcp: i/o timeout")
			}

			_, err := coordinator.Delete(ctx, 42)

			var unreachable *sync.UnreachableError
			Expect(errors.As(err, &unreachable)).To(BeTrue())
			Expect(repository.deleteCalls).To(BeZero())
		})

		It("reports divergence when the mirror delete fails", func() {
			client.deleteFunc = func(_ context.Context, alertID int64) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 204, AlertID: alertID}, nil
			}
			repository.deleteFunc = func(context.Context, int64) (int64, error) {
				return 0, fmt.Errorf("connection reset")
			}

			_, err := coordinator.Delete(ctx, 42)

			var divergence *sync.LocalPersistenceError
			Expect(errors.As(err, &divergence)).To(BeTrue())
			Expect(divergence.Error()).To(ContainSubstring("Alert 42 has still been deleted remotely"))

			Expect(repository.divergences).To(HaveLen(1))
			Expect(repository.divergences[0].Action).To(Equal(models.DivergenceActionDelete))
			Expect(repository.configurations).To(HaveLen(1), "the stale row remains visible until purged")
		})
	})
})
