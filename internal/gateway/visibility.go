// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package gateway

import (
	"cmp"
	"context"
	"slices"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/models"
	"github.com/tomtom215/stationlink/internal/retry"
	"github.com/tomtom215/stationlink/internal/stationapi"
	"github.com/tomtom215/stationlink/internal/validation"
)

// VisibilityGateway manages which parameters of a station the user sees.
type VisibilityGateway struct {
	api      stationapi.API
	retry    retry.Executor
	writeCfg retry.Config
}

// VisibilityOption configures a VisibilityGateway.
type VisibilityOption func(*VisibilityGateway)

// WithVisibilityRetry sets the executor and policy used for writes.
func WithVisibilityRetry(ex retry.Executor, cfg retry.Config) VisibilityOption {
	return func(g *VisibilityGateway) {
		g.retry = ex
		g.writeCfg = cfg
	}
}

// NewVisibilityGateway creates a VisibilityGateway over api.
func NewVisibilityGateway(api stationapi.API, opts ...VisibilityOption) *VisibilityGateway {
	g := &VisibilityGateway{
		api:      api,
		retry:    retry.Default,
		writeCfg: retry.WriteConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ListWithVisibility returns every parameter of station with its visibility
// flag, ordered by display order then code.
func (g *VisibilityGateway) ListWithVisibility(ctx context.Context, station string) ([]models.ParameterVisibility, error) {
	if err := validation.StationNumber(station); err != nil {
		return nil, err
	}
	params, err := g.api.ListParameters(ctx, station)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(params, func(a, b models.ParameterVisibility) int {
		if c := cmp.Compare(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return params, nil
}

// VisibleCodes returns the set of visible parameter codes of station.
func (g *VisibilityGateway) VisibleCodes(ctx context.Context, station string) (map[string]bool, error) {
	params, err := g.ListWithVisibility(ctx, station)
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(params))
	for _, p := range params {
		if p.IsVisible {
			visible[p.Code] = true
		}
	}
	return visible, nil
}

// SetVisibility shows or hides one parameter. It returns false when the
// update did not happen; only invalid input and auth failures are errors.
func (g *VisibilityGateway) SetVisibility(ctx context.Context, station, code string, visible bool) (bool, error) {
	if err := validation.StationParameter(station, code); err != nil {
		return false, err
	}

	_, err := retry.Run(ctx, g.retry, g.writeCfg, func(ctx context.Context, _ int) (struct{}, error) {
		return struct{}{}, g.api.SetParameterVisibility(ctx, station, code, visible)
	})
	if err != nil {
		if apierror.IsAuth(err) {
			return false, err
		}
		logging.Ctx(ctx).Warn().Err(err).
			Str("station", station).
			Str("parameter", code).
			Bool("visible", visible).
			Msg("parameter visibility update failed")
		return false, nil
	}
	return true, nil
}

// SetMultipleVisibility applies updates in a single request. Partial success
// is reported through the counts; a failed request reports zero updated.
// An empty map makes no request.
func (g *VisibilityGateway) SetMultipleVisibility(ctx context.Context, station string, updates map[string]bool) (models.BulkVisibilityResult, error) {
	if len(updates) == 0 {
		return models.BulkVisibilityResult{}, nil
	}
	if err := validation.StationNumber(station); err != nil {
		return models.BulkVisibilityResult{}, err
	}

	codes := make([]string, 0, len(updates))
	for code := range updates {
		if err := validation.ParameterCode(code); err != nil {
			return models.BulkVisibilityResult{}, err
		}
		codes = append(codes, code)
	}
	slices.Sort(codes)

	body := make([]models.VisibilityUpdate, 0, len(codes))
	for _, code := range codes {
		body = append(body, models.VisibilityUpdate{Code: code, Visible: updates[code]})
	}
	return g.setBulk(ctx, station, body)
}

// ShowAll makes every parameter of station visible.
func (g *VisibilityGateway) ShowAll(ctx context.Context, station string) (models.BulkVisibilityResult, error) {
	return g.setAll(ctx, station, true)
}

// HideAll hides every parameter of station.
func (g *VisibilityGateway) HideAll(ctx context.Context, station string) (models.BulkVisibilityResult, error) {
	return g.setAll(ctx, station, false)
}

func (g *VisibilityGateway) setAll(ctx context.Context, station string, visible bool) (models.BulkVisibilityResult, error) {
	params, err := g.ListWithVisibility(ctx, station)
	if err != nil {
		return models.BulkVisibilityResult{}, err
	}
	if len(params) == 0 {
		return models.BulkVisibilityResult{}, nil
	}
	body := make([]models.VisibilityUpdate, 0, len(params))
	for _, p := range params {
		body = append(body, models.VisibilityUpdate{Code: p.Code, Visible: visible})
	}
	return g.setBulk(ctx, station, body)
}

func (g *VisibilityGateway) setBulk(ctx context.Context, station string, body []models.VisibilityUpdate) (models.BulkVisibilityResult, error) {
	res, err := retry.Run(ctx, g.retry, g.writeCfg, func(ctx context.Context, _ int) (models.BulkVisibilityResult, error) {
		return g.api.SetParametersVisibility(ctx, station, body)
	})
	if err != nil {
		if apierror.IsAuth(err) {
			return models.BulkVisibilityResult{}, err
		}
		logging.Ctx(ctx).Warn().Err(err).
			Str("station", station).
			Int("parameters", len(body)).
			Msg("bulk parameter visibility update failed")
		return models.BulkVisibilityResult{Updated: 0, Total: len(body)}, nil
	}
	if res.Total == 0 {
		res.Total = len(body)
	}
	return res, nil
}
