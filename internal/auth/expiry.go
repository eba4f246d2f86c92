// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshPolicy decides when AuthorizationHeader refreshes the access token.
type RefreshPolicy int

const (
	// RefreshOnExpiry refreshes only when the access token's exp claim is
	// within the skew window, or when exp cannot be read.
	RefreshOnExpiry RefreshPolicy = iota
	// RefreshAlways refreshes on every header request.
	RefreshAlways
)

// String returns the configuration name of the policy.
func (p RefreshPolicy) String() string {
	switch p {
	case RefreshAlways:
		return "always"
	default:
		return "on_expiry"
	}
}

// ParseRefreshPolicy parses "on_expiry" or "always".
func ParseRefreshPolicy(s string) (RefreshPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "on_expiry", "expiry":
		return RefreshOnExpiry, nil
	case "always":
		return RefreshAlways, nil
	default:
		return RefreshOnExpiry, fmt.Errorf("unknown refresh policy %q", s)
	}
}

// accessTokenExpiry reads the exp claim. The signature is not verified.
func accessTokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// needsRefresh reports whether token should be refreshed at now under skew.
func needsRefresh(token string, now time.Time, skew time.Duration) bool {
	exp, ok := accessTokenExpiry(token)
	if !ok {
		return true
	}
	return !now.Add(skew).Before(exp)
}
