/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package constants

// API path prefix and version
const (
	AlertsAPIPath = "/api"
	APIVersionV1  = "/v1"
)

// AlertsBaseURL is the base path for all alert endpoints
var AlertsBaseURL = AlertsAPIPath + APIVersionV1

// API endpoint path segments
const (
	AlertConfigsPath   = "/alert-configs"
	AlertsPath         = "/alerts"
	AlertsIncomingPath = "/alerts/incoming"
	DivergencesPath    = "/divergences"
)

// DefaultListenerAddress is the default API listener binding
const DefaultListenerAddress = "127.0.0.1:8080"

// DefaultRemoteAPIBaseURL is the production endpoint of the remote alerting service
const DefaultRemoteAPIBaseURL = "https://aeroapi.flightaware.com/aeroapi"
