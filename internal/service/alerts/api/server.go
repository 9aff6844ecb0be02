// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skywatch-aero/alertmirror/internal/constants"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/repo"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/sync"
	"github.com/skywatch-aero/alertmirror/internal/service/common/api/middleware"
)

// AlertMutator is the coordinated create/modify/delete surface of the sync
// package.
type AlertMutator interface {
	Create(ctx context.Context, request sync.ConfigurationRequest) (sync.MutationOutcome, error)
	Modify(ctx context.Context, alertID int64, request sync.ConfigurationRequest) (sync.MutationOutcome, error)
	Delete(ctx context.Context, alertID int64) (sync.MutationOutcome, error)
}

// ConfigurationLister produces the merged configuration listing.
type ConfigurationLister interface {
	ListAll(ctx context.Context) ([]sync.MergedConfiguration, error)
}

// AlertsServer exposes the alert mirror HTTP API.
type AlertsServer struct {
	// Coordinator drives remote-then-mirror mutations
	Coordinator AlertMutator
	// Merger produces the unified app/external configuration listing
	Merger ConfigurationLister
	// AlertsRepository backs the event log and divergence ledger reads
	AlertsRepository repo.AlertRepositoryInterface
}

// MutationEnvelope is the caller-facing outcome of every configuration
// mutation, success or not. AlertID is null when no remote id applies to the
// outcome.
type MutationEnvelope struct {
	AlertID     *int64 `json:"alertId"`
	Success     bool   `json:"success"`
	Description string `json:"description"`
}

// AlertEventView is the caller-facing rendering of a stored alert event.
type AlertEventView struct {
	ID               int64     `json:"id"`
	ReceiptTime      time.Time `json:"receipt_time"`
	AlertID          *int64    `json:"alert_id"`
	FaFlightID       *string   `json:"fa_flight_id"`
	LongDescription  *string   `json:"long_description"`
	ShortDescription *string   `json:"short_description"`
	Summary          *string   `json:"summary"`
	EventCode        *string   `json:"event_code"`
	Ident            *string   `json:"ident"`
	Registration     *string   `json:"registration"`
	AircraftType     *string   `json:"aircraft_type"`
	Origin           *string   `json:"origin"`
	Destination      *string   `json:"destination"`
}

// DivergenceView is the caller-facing rendering of a divergence ledger entry.
type DivergenceView struct {
	DivergenceID uuid.UUID `json:"divergence_id"`
	AlertID      int64     `json:"alert_id"`
	Action       string    `json:"action"`
	Detail       string    `json:"detail"`
	DetectedAt   time.Time `json:"detected_at"`
}

// RegisterRoutes attaches every alert endpoint to the router.
func (a *AlertsServer) RegisterRoutes(mux *http.ServeMux) {
	base := constants.AlertsBaseURL
	mux.HandleFunc("POST "+base+constants.AlertConfigsPath, a.CreateAlertConfig)
	mux.HandleFunc("GET "+base+constants.AlertConfigsPath, a.ListAlertConfigs)
	mux.HandleFunc("PUT "+base+constants.AlertConfigsPath+"/{alertId}", a.ModifyAlertConfig)
	mux.HandleFunc("DELETE "+base+constants.AlertConfigsPath+"/{alertId}", a.DeleteAlertConfig)
	mux.HandleFunc("POST "+base+constants.AlertsIncomingPath, a.ReceiveAlertNotification)
	mux.HandleFunc("GET "+base+constants.AlertsPath, a.ListAlertEvents)
	mux.HandleFunc("GET "+base+constants.DivergencesPath, a.ListDivergences)
}

// CreateAlertConfig handles an API request to create an alert configuration.
func (a *AlertsServer) CreateAlertConfig(w http.ResponseWriter, r *http.Request) {
	var request sync.ConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		middleware.ProblemDetails(w, fmt.Sprintf("failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}

	outcome, err := a.Coordinator.Create(r.Context(), request)
	if err != nil {
		writeMutationFailure(w, nil, err)
		return
	}

	writeJSON(w, http.StatusCreated, MutationEnvelope{AlertID: &outcome.AlertID, Success: true, Description: outcome.Description})
}

// ModifyAlertConfig handles an API request to replace an alert configuration.
func (a *AlertsServer) ModifyAlertConfig(w http.ResponseWriter, r *http.Request) {
	alertID, ok := alertIDPathValue(w, r)
	if !ok {
		return
	}

	var request sync.ConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		middleware.ProblemDetails(w, fmt.Sprintf("failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}

	outcome, err := a.Coordinator.Modify(r.Context(), alertID, request)
	if err != nil {
		writeMutationFailure(w, &alertID, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationEnvelope{AlertID: &outcome.AlertID, Success: true, Description: outcome.Description})
}

// DeleteAlertConfig handles an API request to delete an alert configuration.
func (a *AlertsServer) DeleteAlertConfig(w http.ResponseWriter, r *http.Request) {
	alertID, ok := alertIDPathValue(w, r)
	if !ok {
		return
	}

	outcome, err := a.Coordinator.Delete(r.Context(), alertID)
	if err != nil {
		writeMutationFailure(w, &alertID, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationEnvelope{AlertID: &outcome.AlertID, Success: true, Description: outcome.Description})
}

// ListAlertConfigs handles an API request for the unified configuration
// listing, mirrored rows merged with what the remote service reports.
func (a *AlertsServer) ListAlertConfigs(w http.ResponseWriter, r *http.Request) {
	merged, err := a.Merger.ListAll(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		var unreachable *sync.UnreachableError
		if errors.As(err, &unreachable) {
			status = http.StatusBadGateway
		}
		slog.Error("failed to produce the merged configuration listing", "error", err)
		middleware.ProblemDetails(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, merged)
}

// ListAlertEvents handles an API request to list received alert events.
func (a *AlertsServer) ListAlertEvents(w http.ResponseWriter, r *http.Request) {
	records, err := a.AlertsRepository.GetAlertEvents(r.Context())
	if err != nil {
		slog.Error("failed to list alert events", "error", err)
		middleware.ProblemDetails(w, "failed to list alert events", http.StatusInternalServerError)
		return
	}

	views := make([]AlertEventView, 0, len(records))
	for _, record := range records {
		views = append(views, alertEventToView(record))
	}

	writeJSON(w, http.StatusOK, views)
}

// ListDivergences handles an API request to list the divergence ledger.
func (a *AlertsServer) ListDivergences(w http.ResponseWriter, r *http.Request) {
	records, err := a.AlertsRepository.GetDivergenceRecords(r.Context())
	if err != nil {
		slog.Error("failed to list divergence records", "error", err)
		middleware.ProblemDetails(w, "failed to list divergence records", http.StatusInternalServerError)
		return
	}

	views := make([]DivergenceView, 0, len(records))
	for _, record := range records {
		views = append(views, DivergenceView{
			DivergenceID: record.DivergenceID,
			AlertID:      record.AlertID,
			Action:       record.Action,
			Detail:       record.Detail,
			DetectedAt:   record.DetectedAt,
		})
	}

	writeJSON(w, http.StatusOK, views)
}

// notificationReceipt mirrors the shape the remote service's webhook callers
// have always been answered with.
type notificationReceipt struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

type notificationFlight struct {
	FaFlightID   *string `json:"fa_flight_id"`
	Ident        *string `json:"ident"`
	Registration *string `json:"registration"`
	AircraftType *string `json:"aircraft_type"`
	Origin       *string `json:"origin"`
	Destination  *string `json:"destination"`
}

// alertNotification is the remote service's alert delivery shape: event fields
// at the top level, flight identity nested under "flight".
type alertNotification struct {
	LongDescription  *string            `json:"long_description"`
	ShortDescription *string            `json:"short_description"`
	Summary          *string            `json:"summary"`
	EventCode        *string            `json:"event_code"`
	AlertID          *int64             `json:"alert_id"`
	Flight           notificationFlight `json:"flight"`
}

var notificationKeys = []string{"long_description", "short_description", "summary", "event_code", "alert_id"}
var notificationFlightKeys = []string{"fa_flight_id", "ident", "registration", "aircraft_type", "origin", "destination"}

// ReceiveAlertNotification handles an alert delivery pushed by the remote
// service, appending it to the event log. Required keys must be present but
// may carry null values; redeliveries are stored again, never deduplicated.
func (a *AlertsServer) ReceiveAlertNotification(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		middleware.ProblemDetails(w, fmt.Sprintf("failed to decode notification body: %v", err), http.StatusBadRequest)
		return
	}

	missing, err := missingNotificationKeys(raw)
	if err != nil {
		middleware.ProblemDetails(w, fmt.Sprintf("failed to decode notification body: %v", err), http.StatusBadRequest)
		return
	}
	if len(missing) > 0 {
		middleware.ProblemDetails(w, fmt.Sprintf("notification is missing required keys: %s", strings.Join(missing, ", ")), http.StatusBadRequest)
		return
	}

	var notification alertNotification
	if err := json.Unmarshal(raw, &notification); err != nil {
		middleware.ProblemDetails(w, fmt.Sprintf("failed to decode notification body: %v", err), http.StatusBadRequest)
		return
	}

	record := models.AlertEvent{
		AlertID:          notification.AlertID,
		FaFlightID:       notification.Flight.FaFlightID,
		LongDescription:  notification.LongDescription,
		ShortDescription: notification.ShortDescription,
		Summary:          notification.Summary,
		EventCode:        notification.EventCode,
		Ident:            notification.Flight.Ident,
		Registration:     notification.Flight.Registration,
		AircraftType:     notification.Flight.AircraftType,
		Origin:           notification.Flight.Origin,
		Destination:      notification.Flight.Destination,
	}
	if _, err := a.AlertsRepository.CreateAlertEvent(r.Context(), record); err != nil {
		slog.Error("failed to store alert notification", "alertID", notification.AlertID, "error", err)
		writeJSON(w, http.StatusInternalServerError, notificationReceipt{
			Title:  "Error inserting into SQL Database",
			Detail: "Inserting into the database had an error",
			Status: http.StatusInternalServerError,
		})
		return
	}

	writeJSON(w, http.StatusOK, notificationReceipt{
		Title:  "Successful request",
		Detail: "Request processed and stored successfully",
		Status: http.StatusOK,
	})
}

// missingNotificationKeys reports which required keys the delivery lacks. Keys
// are checked for presence, not null-ness, so sparse flight data still lands in
// the event log.
func missingNotificationKeys(body []byte) ([]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("notification body is not a JSON object: %w", err)
	}

	var missing []string
	for _, key := range notificationKeys {
		if _, ok := top[key]; !ok {
			missing = append(missing, key)
		}
	}

	flightRaw, ok := top["flight"]
	if !ok {
		missing = append(missing, "flight")
		return missing, nil
	}

	var flight map[string]json.RawMessage
	if err := json.Unmarshal(flightRaw, &flight); err != nil {
		return nil, fmt.Errorf("notification flight block is not a JSON object: %w", err)
	}
	for _, key := range notificationFlightKeys {
		if _, ok := flight[key]; !ok {
			missing = append(missing, "flight."+key)
		}
	}

	return missing, nil
}

func alertEventToView(record models.AlertEvent) AlertEventView {
	return AlertEventView{
		ID:               record.ID,
		ReceiptTime:      record.ReceiptTime,
		AlertID:          record.AlertID,
		FaFlightID:       record.FaFlightID,
		LongDescription:  record.LongDescription,
		ShortDescription: record.ShortDescription,
		Summary:          record.Summary,
		EventCode:        record.EventCode,
		Ident:            record.Ident,
		Registration:     record.Registration,
		AircraftType:     record.AircraftType,
		Origin:           record.Origin,
		Destination:      record.Destination,
	}
}

// alertIDPathValue parses the {alertId} path parameter, answering the request
// itself when the value is not an integer.
func alertIDPathValue(w http.ResponseWriter, r *http.Request) (int64, bool) {
	alertID, err := strconv.ParseInt(r.PathValue("alertId"), 10, 64)
	if err != nil {
		middleware.ProblemDetails(w, fmt.Sprintf("path parameter alertId must be an integer: %v", err), http.StatusBadRequest)
		return 0, false
	}
	return alertID, true
}

// writeMutationFailure renders a coordinator failure into the caller envelope.
// knownID is the id from the request path, if any; a divergence failure
// overrides it with the remote-assigned id it carries.
func writeMutationFailure(w http.ResponseWriter, knownID *int64, err error) {
	status := http.StatusInternalServerError
	alertID := knownID

	var invalid *sync.InvalidRequestError
	var duplicate *sync.DuplicateConfigurationError
	var rejected *sync.RemoteRejectedError
	var unreachable *sync.UnreachableError
	var divergence *sync.LocalPersistenceError

	switch {
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	case errors.As(err, &duplicate):
		status = http.StatusConflict
	case errors.As(err, &rejected):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &unreachable):
		status = http.StatusBadGateway
	case errors.As(err, &divergence):
		alertID = &divergence.AlertID
	default:
		slog.Error("alert configuration mutation failed", "error", err)
	}

	writeJSON(w, status, MutationEnvelope{AlertID: alertID, Success: false, Description: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response payload", "error", err)
	}
}
