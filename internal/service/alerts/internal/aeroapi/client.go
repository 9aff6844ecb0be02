// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package aeroapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skywatch-aero/alertmirror/internal/constants"
)

const defaultTimeout = 10 * time.Second

// Config holds the connection settings for the remote alerting service. The
// key is enforced by the server config validation, not here, because it may
// arrive from a config file instead of the environment.
type Config struct {
	BaseURL string        `envconfig:"AEROAPI_BASE_URL"` // production endpoint when empty
	APIKey  string        `envconfig:"AEROAPI_KEY"`      // static account key sent on every request
	Timeout time.Duration `envconfig:"AEROAPI_TIMEOUT" default:"10s"`
}

// AlertEvents selects which flight lifecycle events trigger deliveries.
type AlertEvents struct {
	Arrival   bool `json:"arrival"`
	Departure bool `json:"departure"`
	Cancelled bool `json:"cancelled"`
	Diverted  bool `json:"diverted"`
	Filed     bool `json:"filed"`
}

// AlertPayload is the configuration body sent with create and modify calls.
// Optional filters are pointers; nil serializes to JSON null, which the remote
// service treats as unset.
// https://www.flightaware.com/aeroapi/portal/documentation#post-/alerts
type AlertPayload struct {
	Ident        *string     `json:"ident"`
	Origin       *string     `json:"origin"`
	Destination  *string     `json:"destination"`
	AircraftType *string     `json:"aircraft_type"`
	Start        *string     `json:"start"`
	End          *string     `json:"end"`
	MaxWeekly    int         `json:"max_weekly"`
	Events       AlertEvents `json:"events"`
}

// RemoteAlert is one entry of the remote service's alert listing. The listing
// does not echo max_weekly back, so the quota is only known for mirrored rows.
type RemoteAlert struct {
	ID           int64       `json:"id"`
	Ident        *string     `json:"ident"`
	Origin       *string     `json:"origin"`
	Destination  *string     `json:"destination"`
	AircraftType *string     `json:"aircraft_type"`
	Start        *string     `json:"start"`
	End          *string     `json:"end"`
	Eta          *int64      `json:"eta"`
	Events       AlertEvents `json:"events"`
}

// MutationResult reports the remote service's verdict on a create, modify or
// delete. A rejection (OK false) is a normal outcome carrying the remote detail
// text; only network-level failures and unusable responses surface as Go errors.
type MutationResult struct {
	OK      bool
	Status  int
	Detail  string
	AlertID int64
}

// Client talks to the remote alerting service. The remote service owns alert
// configuration state; callers mutate it here before touching the local mirror.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ AlertClientInterface = (*Client)(nil)

// NewClient builds a Client from config, falling back to the production
// endpoint and default timeout for unset values.
func NewClient(config Config) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = constants.DefaultRemoteAPIBaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateAlert registers a new alert configuration with the remote service. On
// acceptance the assigned id is parsed from the trailing integer of the
// Location header ("/alerts/<id>").
func (c *Client) CreateAlert(ctx context.Context, payload AlertPayload) (MutationResult, error) {
	resp, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/alerts", &payload)
	if err != nil {
		return MutationResult{}, err
	}

	if !is2xx(resp.StatusCode) {
		return MutationResult{Status: resp.StatusCode, Detail: detailFromBody(resp.StatusCode, body)}, nil
	}

	alertID, err := alertIDFromLocation(resp.Header.Get("Location"))
	if err != nil {
		return MutationResult{}, fmt.Errorf("remote service accepted create but the response is unusable: %w", err)
	}

	slog.Info("Remote alert configuration created", "alertID", alertID)
	return MutationResult{OK: true, Status: resp.StatusCode, AlertID: alertID}, nil
}

// ModifyAlert replaces the configuration the remote service holds under alertID.
func (c *Client) ModifyAlert(ctx context.Context, alertID int64, payload AlertPayload) (MutationResult, error) {
	resp, body, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/alerts/%d", c.baseURL, alertID), &payload)
	if err != nil {
		return MutationResult{}, err
	}

	if !is2xx(resp.StatusCode) {
		return MutationResult{Status: resp.StatusCode, Detail: detailFromBody(resp.StatusCode, body)}, nil
	}

	return MutationResult{OK: true, Status: resp.StatusCode, AlertID: alertID}, nil
}

// DeleteAlert removes the configuration the remote service holds under alertID.
func (c *Client) DeleteAlert(ctx context.Context, alertID int64) (MutationResult, error) {
	resp, body, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/alerts/%d", c.baseURL, alertID), nil)
	if err != nil {
		return MutationResult{}, err
	}

	if !is2xx(resp.StatusCode) {
		return MutationResult{Status: resp.StatusCode, Detail: detailFromBody(resp.StatusCode, body)}, nil
	}

	return MutationResult{OK: true, Status: resp.StatusCode, AlertID: alertID}, nil
}

// ListAlerts retrieves every alert configuration the remote service holds for
// this account.
func (c *Client) ListAlerts(ctx context.Context) ([]RemoteAlert, error) {
	resp, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/alerts", nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error during call to remote alert API: %d - %s", resp.StatusCode, string(body))
	}

	var listing struct {
		Alerts []RemoteAlert `json:"alerts"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("error parsing response: %w, body: %s", err, string(body))
	}

	slog.Debug("Listed remote alert configurations", "alerts", len(listing.Alerts))
	return listing.Alerts, nil
}

// do sends one request with auth headers and returns the response alongside its
// fully read body.
func (c *Client) do(ctx context.Context, method, url string, payload *AlertPayload) (*http.Response, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("error encoding alert payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Add("x-apikey", c.apiKey)
	req.Header.Add("Accept", "application/json")
	if payload != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			slog.Error("failed to close response body during remote alert call", "error", err.Error())
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading response: %w", err)
	}

	return resp, body, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

// detailFromBody renders a rejection into the operator-facing detail text. The
// remote service normally explains itself in a JSON "detail" field; anything
// else (HTML error pages included) is passed through raw.
func detailFromBody(status int, body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return fmt.Sprintf("Error code %d with the following description: %s", status, parsed.Detail)
	}

	return fmt.Sprintf("Error code %d could not be parsed into JSON. The following is the HTML response given: %s", status, string(body))
}

// alertIDFromLocation extracts the new configuration id from a Location header
// shaped like "/alerts/12345".
func alertIDFromLocation(location string) (int64, error) {
	trimmed := strings.TrimSuffix(location, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0, fmt.Errorf("unexpected Location header %q in create response", location)
	}

	id, err := strconv.ParseInt(trimmed[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected Location header %q in create response: %w", location, err)
	}

	return id, nil
}
