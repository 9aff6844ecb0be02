// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package aeroapi

import (
	"fmt"
	"strings"
)

// ParseEvents builds an event flag set from a comma-separated list of event
// names. An empty value raises no flags.
func ParseEvents(value string) (AlertEvents, error) {
	var events AlertEvents
	for _, name := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "arrival":
			events.Arrival = true
		case "departure":
			events.Departure = true
		case "cancelled":
			events.Cancelled = true
		case "diverted":
			events.Diverted = true
		case "filed":
			events.Filed = true
		default:
			return AlertEvents{}, fmt.Errorf("unknown alert event %q, expected arrival, departure, cancelled, diverted or filed", strings.TrimSpace(name))
		}
	}
	return events, nil
}
