// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package stationapi

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/models"
)

// stubAPI returns err from every call and counts invocations.
type stubAPI struct {
	calls atomic.Int32
	err   error
}

func (s *stubAPI) GetLatestAll(context.Context) ([]models.StationLatest, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []models.StationLatest{{StationNumber: "12345678"}}, nil
}

func (s *stubAPI) GetStationLatest(_ context.Context, station, _ string) (*models.StationLatest, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &models.StationLatest{StationNumber: station}, nil
}

func (s *stubAPI) GetHistory(context.Context, string, string, HistoryQuery) ([]models.HistoryPoint, error) {
	s.calls.Add(1)
	return nil, s.err
}

func (s *stubAPI) ListParameters(context.Context, string) ([]models.ParameterVisibility, error) {
	s.calls.Add(1)
	return nil, s.err
}

func (s *stubAPI) SetParameterVisibility(context.Context, string, string, bool) error {
	s.calls.Add(1)
	return s.err
}

func (s *stubAPI) SetParametersVisibility(_ context.Context, _ string, updates []models.VisibilityUpdate) (models.BulkVisibilityResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.BulkVisibilityResult{}, s.err
	}
	return models.BulkVisibilityResult{Updated: len(updates), Total: len(updates)}, nil
}

func testBreakerConfig() BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Timeout = time.Hour
	return cfg
}

func TestCircuitBreaker_PassesResults(t *testing.T) {
	stub := &stubAPI{}
	cbc := NewCircuitBreakerClient(stub, "test-pass", testBreakerConfig())

	latest, err := cbc.GetLatestAll(context.Background())
	checkNoError(t, err)
	checkIntEqual(t, "stations", len(latest), 1)

	one, err := cbc.GetStationLatest(context.Background(), "87654321", "")
	checkNoError(t, err)
	checkStringEqual(t, "station", one.StationNumber, "87654321")

	res, err := cbc.SetParametersVisibility(context.Background(), "12345678", []models.VisibilityUpdate{{Code: "a"}, {Code: "b"}})
	checkNoError(t, err)
	checkIntEqual(t, "updated", res.Updated, 2)

	points, err := cbc.GetHistory(context.Background(), "12345678", "4402", HistoryQuery{})
	checkNoError(t, err)
	checkIntEqual(t, "points", len(points), 0)

	checkStringEqual(t, "state", cbc.State(), "closed")
}

func TestCircuitBreaker_OpensOnServerFailures(t *testing.T) {
	stub := &stubAPI{err: apierror.FromStatus(503, "", "maintenance")}
	cbc := NewCircuitBreakerClient(stub, "test-open", testBreakerConfig())

	for i := 0; i < 10; i++ {
		_, err := cbc.GetLatestAll(context.Background())
		checkKind(t, err, apierror.KindHTTP)
	}
	checkStringEqual(t, "state", cbc.State(), "open")

	_, err := cbc.GetLatestAll(context.Background())
	checkKind(t, err, apierror.KindUnavailable)
	checkIntEqual(t, "calls reaching the API", int(stub.calls.Load()), 10)
}

func TestCircuitBreaker_IgnoresClientAndAuthErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"session expired", apierror.ErrSessionExpired},
		{"not logged in", apierror.ErrNotLoggedIn},
		{"not found", apierror.NotFound("station 12345678")},
		{"forbidden", apierror.FromStatus(403, "", "")},
		{"bad request", apierror.FromStatus(400, "", "")},
		{"cancelled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAPI{err: tt.err}
			cbc := NewCircuitBreakerClient(stub, "test-ignore-"+tt.name, testBreakerConfig())
			for i := 0; i < 15; i++ {
				_ = cbc.SetParameterVisibility(context.Background(), "12345678", "4402", true)
			}
			checkStringEqual(t, "state", cbc.State(), "closed")
			checkIntEqual(t, "calls", int(stub.calls.Load()), 15)
		})
	}
}

func TestCircuitBreaker_MinRequests(t *testing.T) {
	stub := &stubAPI{err: apierror.ErrNoConnection}
	cbc := NewCircuitBreakerClient(stub, "test-min", testBreakerConfig())

	for i := 0; i < 9; i++ {
		_, _ = cbc.ListParameters(context.Background(), "12345678")
	}
	checkStringEqual(t, "state after 9 failures", cbc.State(), "closed")
}

func TestIsHealthy(t *testing.T) {
	if !isHealthy(nil) {
		t.Error("nil error should be healthy")
	}
	if !isHealthy(apierror.Rejected("station offline")) {
		t.Error("success:false response should be healthy")
	}
	if isHealthy(apierror.ErrTimeout) {
		t.Error("timeout should count as a failure")
	}
	if isHealthy(apierror.ErrParse) {
		t.Error("parse error should count as a failure")
	}
}
