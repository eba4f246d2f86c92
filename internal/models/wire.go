// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package models

// Envelope is the {"success": bool, "data": ...} wrapper used by the remote service.
// Error responses carry either Error or Detail.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Message returns the server-provided error text, if any.
func (e *Envelope[T]) Message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Detail
}

// ErrorBody matches both error conventions: {"detail": "..."} and
// {"success": false, "error": "..."}.
type ErrorBody struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Message returns whichever error text is set.
func (e ErrorBody) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

// RefreshResponse is the body of POST /auth/refresh.
type RefreshResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Error        string `json:"error,omitempty"`
	Detail       string `json:"detail,omitempty"`
}

// HistoryData is the data payload of the history endpoint.
type HistoryData struct {
	StationNumber string         `json:"station_number"`
	ParameterCode string         `json:"parameter_code"`
	Points        []HistoryPoint `json:"points"`
}

// BulkVisibilityResponse is the body of the bulk visibility endpoint.
// Counts are read from the top level, or from "data" when the server nests them.
type BulkVisibilityResponse struct {
	Success bool                  `json:"success"`
	Updated int                   `json:"updated"`
	Total   int                   `json:"total"`
	Data    *BulkVisibilityResult `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
	Detail  string                `json:"detail,omitempty"`
}

// Result returns the update counts.
func (r BulkVisibilityResponse) Result() BulkVisibilityResult {
	if r.Updated == 0 && r.Total == 0 && r.Data != nil {
		return *r.Data
	}
	return BulkVisibilityResult{Updated: r.Updated, Total: r.Total}
}

// Message returns the server's error text, if any.
func (r BulkVisibilityResponse) Message() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Detail
}
