// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package apierror

import (
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/stationlink/internal/models"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// FromResponse maps a non-2xx response to the taxonomy, taking the message
// from a {"detail": ...} or {"success": false, "error": ...} body when present.
// The body is read but not closed.
func FromResponse(resp *http.Response, resource string) *Error {
	return FromStatus(resp.StatusCode, resource, ReadErrorMessage(resp.Body))
}

// ReadErrorMessage reads up to 64KB of body and extracts the error message.
// Bodies that are not the JSON error shape are returned trimmed as-is.
func ReadErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var eb models.ErrorBody
	if json.Unmarshal(raw, &eb) == nil {
		if msg := eb.Message(); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(raw))
}
