// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
	"github.com/tomtom215/stationlink/internal/models"
)

const (
	// DefaultRefreshSkew is how long before exp a token is refreshed under RefreshOnExpiry.
	DefaultRefreshSkew = 60 * time.Second

	// DefaultRefreshTimeout bounds one refresh call.
	DefaultRefreshTimeout = 30 * time.Second
)

// Session end reasons passed to OnSessionEnd hooks.
const (
	ReasonLogout          = "logout"
	ReasonRefreshRejected = "refresh_rejected"
)

// SessionManagerConfig configures a SessionManager.
type SessionManagerConfig struct {
	Store     TokenStore
	Refresher Refresher

	Policy         RefreshPolicy
	RefreshSkew    time.Duration
	RefreshTimeout time.Duration

	// Now overrides the clock. Used by tests.
	Now func() time.Time
}

// refreshCall is one refresh shared by every caller that arrives while it runs.
type refreshCall struct {
	done chan struct{}

	header    string // new header on success, stale header on transient failure
	rejected  error  // set when the refresh token was rejected
	transient error  // set when the refresh failed for any other reason
}

// SessionManager is the single owner of the current session.
//
// At most one refresh is in flight at any time. Callers that need a refresh
// while one is running wait for its outcome instead of starting their own.
type SessionManager struct {
	store     TokenStore
	refresher Refresher
	policy    RefreshPolicy
	skew      time.Duration
	timeout   time.Duration
	now       func() time.Time
	events    *logging.SessionLogger

	mu       sync.Mutex
	inflight *refreshCall
	waiters  int    // callers that joined an in-flight refresh, for tests
	epoch    uint64 // bumped whenever the stored session changes
	hooks    []func(reason string)
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Store == nil {
		return nil, errors.New("session manager: token store is required")
	}
	if cfg.Refresher == nil {
		return nil, errors.New("session manager: refresher is required")
	}
	m := &SessionManager{
		store:     cfg.Store,
		refresher: cfg.Refresher,
		policy:    cfg.Policy,
		skew:      cfg.RefreshSkew,
		timeout:   cfg.RefreshTimeout,
		now:       cfg.Now,
		events:    logging.NewSessionLogger(),
	}
	if m.skew <= 0 {
		m.skew = DefaultRefreshSkew
	}
	if m.timeout <= 0 {
		m.timeout = DefaultRefreshTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// OnSessionEnd registers fn to run after the session is cleared by Logout or
// by a rejected refresh. Hooks run outside the manager's lock.
func (m *SessionManager) OnSessionEnd(fn func(reason string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// AuthorizationHeader returns "Bearer <access token>" for the current session,
// refreshing it first when the policy requires.
//
// Errors: apierror.ErrNotLoggedIn with no session, apierror.ErrSessionExpired
// when the refresh token was rejected (the session is cleared). A transient
// refresh failure returns the stale header and no error.
func (m *SessionManager) AuthorizationHeader(ctx context.Context) (string, error) {
	session, err := m.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if session.IsEmpty() {
		return "", apierror.New(apierror.KindNotLoggedIn, "no access token stored")
	}
	if !session.HasRefreshToken() {
		return session.AuthorizationHeader(), nil
	}
	if m.policy == RefreshOnExpiry && !needsRefresh(session.AccessToken, m.now(), m.skew) {
		return session.AuthorizationHeader(), nil
	}

	call, err := m.refresh(ctx, session)
	if err != nil {
		return "", err
	}
	if call.rejected != nil {
		return "", call.rejected
	}
	if call.transient != nil {
		logging.Ctx(ctx).Warn().Err(call.transient).Msg("token refresh failed, using current access token")
	}
	return call.header, nil
}

// RefreshAfterUnauthorized is called by the transport after a request carrying
// rejected was answered with 401. If the token was already rotated it returns
// the current header without a network call; otherwise it forces a refresh.
// Unlike AuthorizationHeader, a transient refresh failure is returned as an error.
func (m *SessionManager) RefreshAfterUnauthorized(ctx context.Context, rejected string) (string, error) {
	session, err := m.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if session.IsEmpty() {
		return "", apierror.New(apierror.KindNotLoggedIn, "no access token stored")
	}
	if current := session.AuthorizationHeader(); current != rejected {
		return current, nil
	}
	if !session.HasRefreshToken() {
		m.endSession(ctx, ReasonRefreshRejected)
		return "", apierror.New(apierror.KindSessionExpired, "access token rejected and no refresh token stored")
	}

	call, err := m.refresh(ctx, session)
	if err != nil {
		return "", err
	}
	if call.rejected != nil {
		return "", call.rejected
	}
	if call.transient != nil {
		return "", call.transient
	}
	return call.header, nil
}

// refresh joins the in-flight refresh or starts one, then waits for it or for ctx.
func (m *SessionManager) refresh(ctx context.Context, session models.Session) (*refreshCall, error) {
	m.mu.Lock()
	call := m.inflight
	if call == nil {
		current, err := m.store.Load(ctx)
		if err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("load session: %w", err)
		}
		if current.IsEmpty() {
			m.mu.Unlock()
			return nil, apierror.New(apierror.KindNotLoggedIn, "no access token stored")
		}
		if current != session {
			// Rotated or replaced since the caller's snapshot; the old refresh token may be spent.
			m.mu.Unlock()
			return &refreshCall{header: current.AuthorizationHeader()}, nil
		}
		call = &refreshCall{done: make(chan struct{})}
		m.inflight = call
		// The shared call must not die with the first caller's context.
		go m.runRefresh(context.WithoutCancel(ctx), call, current, m.epoch)
	} else {
		m.waiters++
	}
	m.mu.Unlock()

	select {
	case <-call.done:
		return call, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *SessionManager) runRefresh(ctx context.Context, call *refreshCall, session models.Session, epoch uint64) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	pair, err := m.refresher.Refresh(ctx, session.RefreshToken)
	elapsed := time.Since(start)

	var cleared bool
	m.mu.Lock()
	switch {
	case err != nil && apierror.IsAuth(err):
		metrics.RecordRefresh("rejected", elapsed)
		call.rejected = apierror.Wrap(apierror.KindSessionExpired, err, "refresh token rejected")
		if m.epoch == epoch {
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				logging.Error().Err(clearErr).Msg("failed to clear session after rejected refresh")
			}
			m.epoch++
			cleared = true
		}
	case err != nil:
		metrics.RecordRefresh("transient", elapsed)
		call.header = session.AuthorizationHeader()
		call.transient = err
	default:
		metrics.RecordRefresh("success", elapsed)
		updated := session
		updated.AccessToken = pair.AccessToken
		if pair.RefreshToken != "" {
			updated.RefreshToken = pair.RefreshToken
		}
		call.header = updated.AuthorizationHeader()
		if m.epoch == epoch {
			var saveErr error
			if pair.RefreshToken == "" {
				saveErr = m.store.SaveAccessToken(ctx, pair.AccessToken)
			} else {
				saveErr = m.store.Save(ctx, updated)
			}
			if saveErr != nil {
				logging.Error().Err(saveErr).Msg("failed to persist refreshed access token")
			}
			m.epoch++
		}
	}
	m.mu.Unlock()

	m.events.LogRefresh(session.UserID, err == nil, err)
	if cleared {
		m.afterClear(session.UserID, ReasonRefreshRejected)
	}

	m.mu.Lock()
	m.inflight = nil
	m.waiters = 0
	close(call.done)
	m.mu.Unlock()
}

// SaveSession stores a new session, replacing any previous one.
func (m *SessionManager) SaveSession(ctx context.Context, session models.Session) error {
	if session.IsEmpty() {
		return apierror.Invalid("session has no access token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.epoch++
	m.events.LogSessionSaved(session.UserID, session.AccessToken)
	return nil
}

// Logout clears the session and runs the session-end hooks.
func (m *SessionManager) Logout(ctx context.Context) error {
	session, _ := m.store.Load(ctx)

	m.mu.Lock()
	err := m.store.Clear(ctx)
	m.epoch++
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	m.afterClear(session.UserID, ReasonLogout)
	return nil
}

// endSession clears the session outside a refresh and runs the hooks.
func (m *SessionManager) endSession(ctx context.Context, reason string) {
	session, _ := m.store.Load(ctx)
	m.mu.Lock()
	if err := m.store.Clear(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to clear session")
	}
	m.epoch++
	m.mu.Unlock()
	m.afterClear(session.UserID, reason)
}

func (m *SessionManager) afterClear(userID, reason string) {
	metrics.SessionClears.WithLabelValues(reason).Inc()
	m.events.LogSessionCleared(userID, reason)

	m.mu.Lock()
	hooks := append([]func(string){}, m.hooks...)
	m.mu.Unlock()
	for _, fn := range hooks {
		fn(reason)
	}
}

// UserID returns the stored user id, or apierror.ErrNotLoggedIn.
func (m *SessionManager) UserID(ctx context.Context) (string, error) {
	session, err := m.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if session.IsEmpty() {
		return "", apierror.New(apierror.KindNotLoggedIn, "no access token stored")
	}
	return session.UserID, nil
}

// LoggedIn reports whether a session is stored.
func (m *SessionManager) LoggedIn(ctx context.Context) bool {
	session, err := m.store.Load(ctx)
	return err == nil && !session.IsEmpty()
}

// inflightWaiters returns how many callers are waiting on the running refresh.
func (m *SessionManager) inflightWaiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiters
}
