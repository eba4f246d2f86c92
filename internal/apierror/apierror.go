// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package apierror defines the error taxonomy shared by the session manager,
// the HTTP transport, the retry executor and the gateways.
//
// Every failure that crosses a package boundary is an *Error carrying a Kind.
// Callers branch with errors.Is against the exported sentinels:
//
//	if errors.Is(err, apierror.ErrSessionExpired) {
//	    // redirect to login
//	}
//
// or with KindOf when the full classification is needed.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for retry and propagation decisions.
type Kind int

const (
	// KindUnknown is an unclassified failure. It is never retried.
	KindUnknown Kind = iota

	// KindNotLoggedIn means no session is stored.
	KindNotLoggedIn
	// KindSessionExpired means the refresh token was rejected and the session was cleared.
	KindSessionExpired

	// KindNoConnection is a transport-level connectivity failure.
	KindNoConnection
	// KindTimeout is a request or dial timeout.
	KindTimeout
	// KindHTTP is a server-side HTTP failure (5xx, 429).
	KindHTTP

	// KindParse is a response body that could not be decoded.
	KindParse
	// KindNotFound is a missing or denied resource.
	KindNotFound
	// KindInvalid is invalid caller input, detected before or while building a request.
	KindInvalid

	// KindClient is a non-retryable 4xx other than 401, 403 and 404.
	KindClient
	// KindPermission is HTTP 403.
	KindPermission

	// KindUnavailable means the request was refused locally (circuit open, limiter cancelled).
	KindUnavailable

	// KindRejected is a 2xx response whose body reported {"success": false}.
	KindRejected
)

// String returns the lowercase name of the kind, used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindNotLoggedIn:
		return "not_logged_in"
	case KindSessionExpired:
		return "session_expired"
	case KindNoConnection:
		return "no_connection"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindClient:
		return "client"
	case KindPermission:
		return "permission"
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsAuth reports whether the kind is an authentication failure.
func (k Kind) IsAuth() bool {
	return k == KindNotLoggedIn || k == KindSessionExpired
}

// IsNetwork reports whether the kind is a connectivity, timeout or server failure.
func (k Kind) IsNetwork() bool {
	return k == KindNoConnection || k == KindTimeout || k == KindHTTP
}

// Error is the concrete error type of the taxonomy.
type Error struct {
	Kind       Kind
	StatusCode int    // HTTP status, 0 when the request never completed
	Resource   string // resource named by NotFound errors
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Resource != "" {
		msg += ": " + e.Resource
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, so the exported sentinels work with errors.Is.
// A sentinel with a StatusCode also requires the same status.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotLoggedIn    = &Error{Kind: KindNotLoggedIn}
	ErrSessionExpired = &Error{Kind: KindSessionExpired}
	ErrNoConnection   = &Error{Kind: KindNoConnection}
	ErrTimeout        = &Error{Kind: KindTimeout}
	ErrHTTP           = &Error{Kind: KindHTTP}
	ErrParse          = &Error{Kind: KindParse}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalid        = &Error{Kind: KindInvalid}
	ErrClient         = &Error{Kind: KindClient}
	ErrPermission     = &Error{Kind: KindPermission}
	ErrUnavailable    = &Error{Kind: KindUnavailable}
	ErrRejected       = &Error{Kind: KindRejected}
)

// New creates an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error of the given kind around err.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// NotFound creates a NotFound error naming the resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource}
}

// Invalid creates an Invalid error.
func Invalid(msg string) *Error {
	return &Error{Kind: KindInvalid, Message: msg}
}

// Rejected creates a Rejected error carrying the server's message.
func Rejected(msg string) *Error {
	return &Error{Kind: KindRejected, Message: msg}
}

// FromStatus maps a non-2xx HTTP status to the taxonomy.
// 401 is mapped to SessionExpired; the transport only produces it after the
// refresh-then-retry-once path has already been taken.
func FromStatus(status int, resource, msg string) *Error {
	e := &Error{StatusCode: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindSessionExpired
	case status == http.StatusForbidden:
		e.Kind = KindPermission
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		e.Resource = resource
	case status == http.StatusTooManyRequests, status >= 500:
		e.Kind = KindHTTP
	case status >= 400:
		e.Kind = KindClient
	default:
		e.Kind = KindUnknown
	}
	return e
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return KindOf(err).IsAuth()
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
