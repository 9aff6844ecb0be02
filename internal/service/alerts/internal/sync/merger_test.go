// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package sync_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/sync"
)

var _ = Describe("ReconciliationMerger", func() {
	var (
		ctx        context.Context
		client     *fakeAlertClient
		repository *fakeRepository
		merger     *sync.ReconciliationMerger
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeAlertClient{}
		repository = &fakeRepository{}
		merger = sync.NewReconciliationMerger(client, repository)
	})

	It("tags mirrored rows app and remote-only entries external, each id once", func() {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		repository.configurations = []models.AlertConfiguration{{
			AlertID:   42,
			Ident:     strPtr("UAL123"),
			StartDate: &start,
			MaxWeekly: 500,
			Arrival:   true,
		}}
		client.listFunc = func(context.Context) ([]aeroapi.RemoteAlert, error) {
			return []aeroapi.RemoteAlert{
				{ID: 42, Ident: strPtr("UAL123")},
				{ID: 77, Ident: strPtr("ASA55"), Start: strPtr("2024-03-01"), Eta: int64Ptr(45), Events: aeroapi.AlertEvents{Departure: true}},
			}, nil
		}

		merged, err := merger.ListAll(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(merged).To(HaveLen(2))

		Expect(merged[0].AlertID).To(Equal(int64(42)))
		Expect(merged[0].Provenance).To(Equal(sync.ProvenanceApp))
		Expect(merged[0].Start).To(HaveValue(Equal("2024-01-01")))
		Expect(merged[0].MaxWeekly).To(Equal(500))
		Expect(merged[0].Events.Arrival).To(BeTrue())

		Expect(merged[1].AlertID).To(Equal(int64(77)))
		Expect(merged[1].Provenance).To(Equal(sync.ProvenanceExternal))
		Expect(merged[1].Start).To(HaveValue(Equal("2024-03-01")))
		Expect(merged[1].MaxWeekly).To(Equal(sync.DefaultMaxWeekly), "the remote listing carries no quota")
		Expect(merged[1].Eta).To(HaveValue(Equal(int64(45))))
		Expect(merged[1].Events.Departure).To(BeTrue())
	})

	It("returns an empty listing when both sides are empty", func() {
		client.listFunc = func(context.Context) ([]aeroapi.RemoteAlert, error) {
			return nil, nil
		}

		merged, err := merger.ListAll(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(merged).To(BeEmpty())
	})

	It("is idempotent across calls without intervening mutation", func() {
		repository.configurations = []models.AlertConfiguration{{AlertID: 1}, {AlertID: 2}}
		client.listFunc = func(context.Context) ([]aeroapi.RemoteAlert, error) {
			return []aeroapi.RemoteAlert{{ID: 2}, {ID: 3}}, nil
		}

		first, err := merger.ListAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		second, err := merger.ListAll(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
		Expect(first).To(HaveLen(3))
	})

	It("fails the whole view when the remote listing is unavailable", func() {
		repository.configurations = []models.AlertConfiguration{{AlertID: 42}}
		client.listFunc = func(context.Context) ([]aeroapi.RemoteAlert, error) {
			return nil, fmt.Errorf("dial tcp: i/o timeout")
		}

		_, err := merger.ListAll(ctx)

		var unreachable *sync.UnreachableError
		Expect(errors.As(err, &unreachable)).To(BeTrue())
	})

	It("fails the whole view when the mirror is unavailable", func() {
		repository.listFunc = func(context.Context) ([]models.AlertConfiguration, error) {
			return nil, fmt.Errorf("connection refused")
		}
		client.listFunc = func(context.Context) ([]aeroapi.RemoteAlert, error) {
			return nil, nil
		}

		_, err := merger.ListAll(ctx)

		Expect(err).To(HaveOccurred())
		var unreachable *sync.UnreachableError
		Expect(errors.As(err, &unreachable)).To(BeFalse(), "a mirror failure is local, not remote")
		Expect(err.Error()).To(ContainSubstring("failed to read mirrored configurations"))
	})

	Describe("after a delete", func() {
		var coordinator *sync.SyncCoordinator

		BeforeEach(func() {
			coordinator = sync.NewSyncCoordinator(client, repository, aeroapi.AlertEvents{})
			repository.configurations = []models.AlertConfiguration{{AlertID: 42, Ident: strPtr("UAL123")}}
		})

		It("never reports the deleted id as app, even off a lagging remote listing", func() {
			client.deleteFunc = func(_ context.Context, alertID int64) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{OK: true, Status: 204, AlertID: alertID}, nil
			}
			client.listFunc = func(context.Context) ([]aeroapi.RemoteAlert, error) {
				// Remote listings can lag a just-accepted delete.
				return []aeroapi.RemoteAlert{{ID: 42, Ident: strPtr("UAL123")}}, nil
			}

			_, err := coordinator.Delete(ctx, 42)
			Expect(err).NotTo(HaveOccurred())

			merged, err := merger.ListAll(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(merged).To(HaveLen(1))
			Expect(merged[0].AlertID).To(Equal(int64(42)))
			Expect(merged[0].Provenance).To(Equal(sync.ProvenanceExternal))
		})

		It("keeps a rejected delete tagged app, unchanged", func() {
			client.deleteFunc = func(context.Context, int64) (aeroapi.MutationResult, error) {
				return aeroapi.MutationResult{Status: 404, Detail: "Error code 404 with the following description: unknown alert id"}, nil
			}
			client.listFunc = func(context.Context) ([]aeroapi.RemoteAlert, error) {
				return []aeroapi.RemoteAlert{{ID: 42, Ident: strPtr("UAL123")}}, nil
			}

			_, err := coordinator.Delete(ctx, 42)
			var rejected *sync.RemoteRejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())

			merged, err := merger.ListAll(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(merged).To(HaveLen(1))
			Expect(merged[0].AlertID).To(Equal(int64(42)))
			Expect(merged[0].Provenance).To(Equal(sync.ProvenanceApp))
			Expect(merged[0].Ident).To(HaveValue(Equal("UAL123")))
		})
	})
})
