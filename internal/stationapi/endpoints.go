// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package stationapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/models"
)

// GetLatestAll fetches the latest readings of every station owned by the user.
func (c *Client) GetLatestAll(ctx context.Context) ([]models.StationLatest, error) {
	return getEnvelope[[]models.StationLatest](ctx, c, request{
		endpoint: "latest_all",
		method:   http.MethodGet,
		path:     "/data/latest",
		resource: "latest readings",
	})
}

// GetStationLatest fetches the latest readings of one station.
// A non-empty parameter narrows the response to that code.
func (c *Client) GetStationLatest(ctx context.Context, station, parameter string) (*models.StationLatest, error) {
	var q url.Values
	if parameter != "" {
		q = url.Values{"parameter": {parameter}}
	}
	latest, err := getEnvelope[models.StationLatest](ctx, c, request{
		endpoint: "station_latest",
		method:   http.MethodGet,
		path:     "/data/" + url.PathEscape(station) + "/latest",
		query:    q,
		resource: "station " + station,
	})
	if err != nil {
		return nil, err
	}
	if latest.StationNumber == "" {
		latest.StationNumber = station
	}
	return &latest, nil
}

// GetHistory fetches the time series of one parameter. Times are sent as unix seconds.
func (c *Client) GetHistory(ctx context.Context, station, parameter string, hq HistoryQuery) ([]models.HistoryPoint, error) {
	q := url.Values{}
	if hq.Start != nil {
		q.Set("start_time", strconv.FormatInt(hq.Start.Unix(), 10))
	}
	if hq.End != nil {
		q.Set("end_time", strconv.FormatInt(hq.End.Unix(), 10))
	}
	if hq.Limit > 0 {
		q.Set("limit", strconv.Itoa(hq.Limit))
	}

	data, err := getEnvelope[models.HistoryData](ctx, c, request{
		endpoint: "history",
		method:   http.MethodGet,
		path:     "/data/" + url.PathEscape(station) + "/" + url.PathEscape(parameter) + "/history",
		query:    q,
		resource: "parameter " + parameter + " of station " + station,
	})
	if err != nil {
		return nil, err
	}
	return data.Points, nil
}

// ListParameters fetches every parameter of a station with the user's visibility flags.
func (c *Client) ListParameters(ctx context.Context, station string) ([]models.ParameterVisibility, error) {
	return getEnvelope[[]models.ParameterVisibility](ctx, c, request{
		endpoint: "list_parameters",
		method:   http.MethodGet,
		path:     "/stations/" + url.PathEscape(station) + "/parameters",
		resource: "station " + station,
	})
}

// SetParameterVisibility shows or hides one parameter.
func (c *Client) SetParameterVisibility(ctx context.Context, station, code string, visible bool) error {
	var body models.ErrorBody
	err := c.do(ctx, request{
		endpoint: "set_visibility",
		method:   http.MethodPatch,
		path:     "/stations/" + url.PathEscape(station) + "/parameters/" + url.PathEscape(code),
		body:     models.SingleVisibilityRequest{IsVisible: visible},
		resource: "parameter " + code + " of station " + station,
	}, &body)
	if err != nil {
		return err
	}
	if body.Success != nil && !*body.Success {
		return apierror.Rejected(body.Message())
	}
	return nil
}

// SetParametersVisibility updates many parameters in one request.
// Partial success is reported through the returned counts.
func (c *Client) SetParametersVisibility(ctx context.Context, station string, updates []models.VisibilityUpdate) (models.BulkVisibilityResult, error) {
	var resp models.BulkVisibilityResponse
	err := c.do(ctx, request{
		endpoint: "set_visibility_bulk",
		method:   http.MethodPatch,
		path:     "/stations/" + url.PathEscape(station) + "/parameters",
		body:     models.BulkVisibilityRequest{Parameters: updates},
		resource: "station " + station,
	}, &resp)
	if err != nil {
		return models.BulkVisibilityResult{}, err
	}
	if !resp.Success {
		return models.BulkVisibilityResult{}, apierror.Rejected(resp.Message())
	}
	return resp.Result(), nil
}
