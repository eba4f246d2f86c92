// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SessionLogger records authentication lifecycle events under a fixed
// "session" component. Tokens are always redacted.
type SessionLogger struct {
	logger zerolog.Logger
}

// NewSessionLogger creates a SessionLogger on the global logger.
func NewSessionLogger() *SessionLogger {
	return &SessionLogger{logger: WithComponent("session")}
}

// NewSessionLoggerWithLogger creates a SessionLogger on a specific logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSessionLoggerWithLogger(logger zerolog.Logger) *SessionLogger {
	return &SessionLogger{logger: logger.With().Str("component", "session").Logger()}
}

// LogSessionSaved records a new session being persisted after login.
func (l *SessionLogger) LogSessionSaved(userID, accessToken string) {
	l.logger.Info().
		Str("event", "session_saved").
		Str("user_id", userID).
		Str("access_token", RedactToken(accessToken)).
		Msg("session stored")
}

// LogRefresh records the outcome of a token refresh.
func (l *SessionLogger) LogRefresh(userID string, success bool, err error) {
	e := l.logger.Info()
	if !success {
		e = l.logger.Warn().Err(err)
	}
	e.Str("event", "token_refresh").
		Str("user_id", userID).
		Bool("success", success).
		Msg("token refresh")
}

// LogSessionCleared records the session being cleared and why.
func (l *SessionLogger) LogSessionCleared(userID, reason string) {
	l.logger.Info().
		Str("event", "session_cleared").
		Str("user_id", userID).
		Str("reason", reason).
		Msg("session cleared")
}

// RedactToken keeps a short prefix of a token so log lines can be correlated
// without exposing the credential.
func RedactToken(token string) string {
	token = strings.TrimPrefix(token, "Bearer ")
	switch {
	case token == "":
		return ""
	case len(token) <= 8:
		return "[REDACTED]"
	default:
		return token[:4] + "...[REDACTED]"
	}
}
