// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/models"
)

// RefreshPath is the token refresh endpoint, relative to the API base URL.
const RefreshPath = "/auth/refresh"

// Refresher exchanges a refresh token for a new access token.
//
// A rejected refresh token must be reported as an auth error
// (apierror.KindSessionExpired); any other error is treated as transient.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (models.TokenPair, error)

// Refresh implements Refresher.
func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	return f(ctx, refreshToken)
}

// HTTPRefresher calls POST {base}/auth/refresh with the refresh token as bearer.
type HTTPRefresher struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRefresher creates a refresher. A nil client gets a 30s timeout client.
func NewHTTPRefresher(baseURL string, client *http.Client) *HTTPRefresher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRefresher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// Refresh implements Refresher.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+RefreshPath, http.NoBody)
	if err != nil {
		return models.TokenPair{}, apierror.Wrap(apierror.KindInvalid, err, "build refresh request")
	}
	req.Header.Set("Authorization", models.BearerPrefix+refreshToken)
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	} else {
		req.Header.Set("X-Request-ID", logging.GenerateRequestID())
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return models.TokenPair{}, apierror.Classify(err, "refresh request")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		e := apierror.FromResponse(resp, "")
		e.Kind = apierror.KindSessionExpired
		return models.TokenPair{}, e
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.TokenPair{}, apierror.FromResponse(resp, "")
	}

	var body models.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.TokenPair{}, apierror.Wrap(apierror.KindParse, err, "decode refresh response")
	}
	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = body.Detail
		}
		return models.TokenPair{}, &apierror.Error{
			Kind:       apierror.KindSessionExpired,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("refresh rejected: %s", msg),
		}
	}
	if body.AccessToken == "" {
		return models.TokenPair{}, apierror.New(apierror.KindParse, "refresh response has no access_token")
	}

	return models.TokenPair{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}, nil
}
