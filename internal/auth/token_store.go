// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package auth owns the bearer-token session: persistence of the token pair,
// on-demand refresh, and the single-refresh-in-flight guarantee.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/stationlink/internal/models"
)

// ErrNoSession is returned by SaveAccessToken when nothing is stored.
var ErrNoSession = errors.New("no session stored")

// TokenStore persists the current session.
//
// Load returns an empty Session and a nil error when nothing is stored.
// Save replaces all three fields atomically.
type TokenStore interface {
	Load(ctx context.Context) (models.Session, error)
	Save(ctx context.Context, session models.Session) error
	SaveAccessToken(ctx context.Context, accessToken string) error
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the session in process memory.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	session models.Session
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load implements TokenStore.
func (s *MemoryTokenStore) Load(_ context.Context) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, nil
}

// Save implements TokenStore.
func (s *MemoryTokenStore) Save(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	return nil
}

// SaveAccessToken implements TokenStore.
func (s *MemoryTokenStore) SaveAccessToken(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.IsEmpty() {
		return ErrNoSession
	}
	s.session.AccessToken = accessToken
	return nil
}

// Clear implements TokenStore.
func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.Session{}
	return nil
}
