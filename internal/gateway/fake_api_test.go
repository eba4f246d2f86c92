// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/cache"
	"github.com/tomtom215/stationlink/internal/models"
	"github.com/tomtom215/stationlink/internal/retry"
	"github.com/tomtom215/stationlink/internal/stationapi"
)

// fakeAPI is an in-memory station service.
type fakeAPI struct {
	mu sync.Mutex

	latest  map[string]map[string]*float64
	params  map[string][]models.ParameterVisibility
	history map[string][]models.HistoryPoint

	latestErr  error
	listErr    map[string]error
	historyErr error
	writeErr   error

	// beforeLatest runs at the start of each latest-value request.
	beforeLatest func()

	latestCalls int
	listCalls   int
	bulkCalls   int
	lastHistory stationapi.HistoryQuery
	lastBulk    []models.VisibilityUpdate
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		latest:  make(map[string]map[string]*float64),
		params:  make(map[string][]models.ParameterVisibility),
		history: make(map[string][]models.HistoryPoint),
		listErr: make(map[string]error),
	}
}

func ptr(v float64) *float64 { return &v }

func (f *fakeAPI) setLatest(station, code string, v *float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest[station] == nil {
		f.latest[station] = make(map[string]*float64)
	}
	f.latest[station][code] = v
}

func (f *fakeAPI) addParam(station, code string, order int, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[station] = append(f.params[station], models.ParameterVisibility{
		Code: code, Name: "param " + code, IsVisible: visible, DisplayOrder: order,
	})
}

func (f *fakeAPI) setLatestErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestErr = err
}

func (f *fakeAPI) GetLatestAll(context.Context) ([]models.StationLatest, error) {
	if f.beforeLatest != nil {
		f.beforeLatest()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestCalls++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	out := make([]models.StationLatest, 0, len(f.latest))
	for station, params := range f.latest {
		cp := make(map[string]*float64, len(params))
		for k, v := range params {
			cp[k] = v
		}
		out = append(out, models.StationLatest{StationNumber: station, Timestamp: 1700000000, Parameters: cp})
	}
	return out, nil
}

func (f *fakeAPI) GetStationLatest(_ context.Context, station, parameter string) (*models.StationLatest, error) {
	if f.beforeLatest != nil {
		f.beforeLatest()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestCalls++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	params, ok := f.latest[station]
	if !ok {
		return nil, apierror.NotFound("station " + station)
	}
	cp := make(map[string]*float64)
	for k, v := range params {
		if parameter == "" || k == parameter {
			cp[k] = v
		}
	}
	return &models.StationLatest{StationNumber: station, Parameters: cp}, nil
}

func (f *fakeAPI) GetHistory(_ context.Context, station, parameter string, q stationapi.HistoryQuery) ([]models.HistoryPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastHistory = q
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return append([]models.HistoryPoint(nil), f.history[station+"/"+parameter]...), nil
}

func (f *fakeAPI) ListParameters(_ context.Context, station string) ([]models.ParameterVisibility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.listErr[station]; err != nil {
		return nil, err
	}
	params, ok := f.params[station]
	if !ok {
		return nil, apierror.NotFound("station " + station)
	}
	return append([]models.ParameterVisibility(nil), params...), nil
}

func (f *fakeAPI) SetParameterVisibility(_ context.Context, station, code string, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.params[station] {
		if f.params[station][i].Code == code {
			f.params[station][i].IsVisible = visible
			return nil
		}
	}
	return apierror.NotFound("parameter " + code)
}

func (f *fakeAPI) SetParametersVisibility(_ context.Context, station string, updates []models.VisibilityUpdate) (models.BulkVisibilityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkCalls++
	f.lastBulk = updates
	if f.writeErr != nil {
		return models.BulkVisibilityResult{}, f.writeErr
	}
	updated := 0
	for _, u := range updates {
		for i := range f.params[station] {
			if f.params[station][i].Code == u.Code {
				f.params[station][i].IsVisible = u.Visible
				updated++
			}
		}
	}
	return models.BulkVisibilityResult{Updated: updated, Total: len(updates)}, nil
}

// noSleep is a retry executor that never waits and records requested delays.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (n *noSleep) executor() retry.Executor {
	return retry.Executor{Sleep: func(ctx context.Context, d time.Duration) error {
		n.mu.Lock()
		n.delays = append(n.delays, d)
		n.mu.Unlock()
		return ctx.Err()
	}}
}

const (
	stationA = "12345678"
	stationB = "87654321"
)

// newTestGateways wires gateways over api with a non-sleeping executor.
func newTestGateways(api stationapi.API) (*SensorGateway, *VisibilityGateway, *cache.ValueCache) {
	sleeper := &noSleep{}
	values := cache.New()
	vis := NewVisibilityGateway(api, WithVisibilityRetry(sleeper.executor(), retry.WriteConfig()))
	sensors := NewSensorGateway(api, values, vis, WithSensorRetry(sleeper.executor(), retry.SensorReadConfig()))
	return sensors, vis, values
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}

func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

func checkFloatEqual(t *testing.T, fieldName string, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %v, got %v", fieldName, want, got)
	}
}

func checkTrue(t *testing.T, description string, condition bool) {
	t.Helper()
	if !condition {
		t.Errorf("expected true: %s", description)
	}
}
