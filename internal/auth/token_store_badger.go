// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/stationlink/internal/models"
)

// sessionKey holds the whole session as one record so Save is a single write.
const sessionKey = "session:current"

// sessionRecord is the on-disk form of a session.
type sessionRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Encrypted    bool      `json:"encrypted"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BadgerTokenStore persists the session in BadgerDB. Tokens are sealed with
// the TokenEncryptor when one is configured.
type BadgerTokenStore struct {
	db     *badger.DB
	enc    *TokenEncryptor
	ownsDB bool
}

// NewBadgerTokenStore wraps an open database. enc may be nil.
func NewBadgerTokenStore(db *badger.DB, enc *TokenEncryptor) *BadgerTokenStore {
	return &BadgerTokenStore{db: db, enc: enc}
}

// OpenBadgerTokenStore opens (or creates) a database at dir owned by the store.
func OpenBadgerTokenStore(dir string, enc *TokenEncryptor) (*BadgerTokenStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open token store at %s: %w", dir, err)
	}
	return &BadgerTokenStore{db: db, enc: enc, ownsDB: true}, nil
}

// Close closes the database if the store opened it.
func (s *BadgerTokenStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// Load implements TokenStore.
func (s *BadgerTokenStore) Load(_ context.Context) (models.Session, error) {
	var rec sessionRecord
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		r, ok, err := getRecord(txn)
		rec, found = r, ok
		return err
	})
	if err != nil {
		return models.Session{}, err
	}
	if !found {
		return models.Session{}, nil
	}
	return s.decode(rec)
}

// Save implements TokenStore.
func (s *BadgerTokenStore) Save(_ context.Context, session models.Session) error {
	rec, err := s.encode(session)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return putRecord(txn, rec)
	})
}

// SaveAccessToken implements TokenStore. The read and write share one transaction.
func (s *BadgerTokenStore) SaveAccessToken(_ context.Context, accessToken string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, found, err := getRecord(txn)
		if err != nil {
			return err
		}
		if !found || rec.AccessToken == "" {
			return ErrNoSession
		}

		session, err := s.decode(rec)
		if err != nil {
			return err
		}
		session.AccessToken = accessToken
		updated, err := s.encode(session)
		if err != nil {
			return err
		}
		return putRecord(txn, updated)
	})
}

// Clear implements TokenStore.
func (s *BadgerTokenStore) Clear(_ context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(sessionKey)); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

func getRecord(txn *badger.Txn) (sessionRecord, bool, error) {
	var rec sessionRecord
	item, err := txn.Get([]byte(sessionKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("get session: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return rec, false, fmt.Errorf("decode session: %w", err)
	}
	return rec, true, nil
}

func putRecord(txn *badger.Txn, rec sessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := txn.Set([]byte(sessionKey), data); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *BadgerTokenStore) encode(session models.Session) (sessionRecord, error) {
	access, err := s.enc.Encrypt(session.AccessToken)
	if err != nil {
		return sessionRecord{}, fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := s.enc.Encrypt(session.RefreshToken)
	if err != nil {
		return sessionRecord{}, fmt.Errorf("encrypt refresh token: %w", err)
	}
	return sessionRecord{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       session.UserID,
		Encrypted:    s.enc.IsEnabled(),
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

func (s *BadgerTokenStore) decode(rec sessionRecord) (models.Session, error) {
	if rec.Encrypted && !s.enc.IsEnabled() {
		return models.Session{}, errors.New("stored session is encrypted but no encryption key is configured")
	}

	session := models.Session{UserID: rec.UserID}
	var err error
	if rec.Encrypted {
		if session.AccessToken, err = s.enc.Decrypt(rec.AccessToken); err != nil {
			return models.Session{}, fmt.Errorf("decrypt access token: %w", err)
		}
		if session.RefreshToken, err = s.enc.Decrypt(rec.RefreshToken); err != nil {
			return models.Session{}, fmt.Errorf("decrypt refresh token: %w", err)
		}
		return session, nil
	}
	session.AccessToken = rec.AccessToken
	session.RefreshToken = rec.RefreshToken
	return session, nil
}
