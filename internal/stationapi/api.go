// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package stationapi

import (
	"context"
	"time"

	"github.com/tomtom215/stationlink/internal/models"
)

// API is the set of remote operations used by the gateways.
// Both *Client and *CircuitBreakerClient implement it.
type API interface {
	GetLatestAll(ctx context.Context) ([]models.StationLatest, error)
	GetStationLatest(ctx context.Context, station, parameter string) (*models.StationLatest, error)
	GetHistory(ctx context.Context, station, parameter string, q HistoryQuery) ([]models.HistoryPoint, error)
	ListParameters(ctx context.Context, station string) ([]models.ParameterVisibility, error)
	SetParameterVisibility(ctx context.Context, station, code string, visible bool) error
	SetParametersVisibility(ctx context.Context, station string, updates []models.VisibilityUpdate) (models.BulkVisibilityResult, error)
}

// HistoryQuery holds the optional filters of the history endpoint.
// Zero values are omitted from the request.
type HistoryQuery struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

var (
	_ API = (*Client)(nil)
	_ API = (*CircuitBreakerClient)(nil)
)
