// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package stationapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tomtom215/stationlink/internal/apierror"
)

// fakeAuth is an Authorizer that rotates "Bearer old" to "Bearer new".
type fakeAuth struct {
	mu           sync.Mutex
	header       string
	headerErr    error
	refreshErr   error
	refreshCalls int
	rejected     []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{header: "Bearer old"}
}

func (f *fakeAuth) AuthorizationHeader(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headerErr != nil {
		return "", f.headerErr
	}
	return f.header, nil
}

func (f *fakeAuth) RefreshAfterUnauthorized(_ context.Context, rejected string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	f.rejected = append(f.rejected, rejected)
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.header = "Bearer new"
	return f.header, nil
}

func (f *fakeAuth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

// newTestClient starts handler on an httptest server and returns a client for it.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *fakeAuth) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fa := newFakeAuth()
	c, err := NewClient(srv.URL, fa, opts...)
	checkNoError(t, err)
	return c, fa
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
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

func checkKind(t *testing.T, err error, want apierror.Kind) {
	t.Helper()
	if got := apierror.KindOf(err); got != want {
		t.Fatalf("error kind: expected %s, got %s (%v)", want, got, err)
	}
}

func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}
