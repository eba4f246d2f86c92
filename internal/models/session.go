// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package models

// BearerPrefix is prepended to every access token placed in an Authorization header.
const BearerPrefix = "Bearer "

// Session holds the credentials of the logged-in user.
// It is owned by the session manager; other components only ever see the
// formatted Authorization header.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// IsEmpty reports whether no access token is stored.
func (s Session) IsEmpty() bool {
	return s.AccessToken == ""
}

// HasRefreshToken reports whether the session can be rotated.
func (s Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}

// AuthorizationHeader formats the access token as a bearer header value.
func (s Session) AuthorizationHeader() string {
	return BearerPrefix + s.AccessToken
}

// TokenPair is the outcome of a successful refresh.
// RefreshToken is empty when the server did not rotate the refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
