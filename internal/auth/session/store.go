// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Package session persists the authentication session as two flat keys,
// "token" and "user", over a pluggable Backend.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
)

// Storage keys. The layout is shared with other EcoTrack clients.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Store implements auth.SessionStore over a Backend.
//
// A stored profile that cannot be decoded invalidates the whole session:
// Read reports no session and removes both keys so the orphaned token is
// not reused.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

var _ auth.SessionStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over backend.
func NewStore(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, oops.Code("SESSION_INVALID_BACKEND").Errorf("session backend is required")
	}
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session.store")
	return s, nil
}

// Save implements auth.SessionStore. Both keys are written in one backend call.
func (s *Store) Save(ctx context.Context, token string, profile auth.UserProfile) error {
	if token == "" {
		return oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	user, err := json.Marshal(profile)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("operation", "marshal profile").Wrap(err)
	}

	if err := s.backend.SetAll(ctx, map[string]string{
		TokenKey: token,
		UserKey:  string(user),
	}); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("user_id", profile.ID).Wrap(err)
	}
	return nil
}

// Read implements auth.SessionStore.
func (s *Store) Read(ctx context.Context) (*auth.Session, error) {
	values, err := s.backend.GetAll(ctx, TokenKey, UserKey)
	if errors.Is(err, ErrCorrupt) {
		s.discard(ctx, "storage corrupt", err)
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_READ_FAILED").Wrap(err)
	}

	token, hasToken := values[TokenKey]
	user, hasUser := values[UserKey]
	if !hasToken && !hasUser {
		return nil, nil
	}
	if !hasToken || token == "" || !hasUser {
		s.discard(ctx, "incomplete session", nil)
		return nil, nil
	}

	profile, err := DecodeProfile(user)
	if err != nil {
		s.discard(ctx, "stored profile unreadable", err)
		return nil, nil
	}

	return &auth.Session{Token: token, Profile: profile}, nil
}

// discard clears an unusable session. Failure to clear is logged only:
// the read already reports no session.
func (s *Store) discard(ctx context.Context, reason string, cause error) {
	s.logger.WarnContext(ctx, "discarding stored session", "reason", reason, "error", cause)
	if err := s.backend.Delete(ctx, TokenKey, UserKey); err != nil {
		s.logger.WarnContext(ctx, "failed to clear discarded session", "error", err)
	}
}

// Clear implements auth.SessionStore.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, TokenKey, UserKey); err != nil {
		return oops.Code("SESSION_CLEAR_FAILED").Wrap(err)
	}
	return nil
}

// Token implements auth.SessionStore. It does not look at the profile.
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	values, err := s.backend.GetAll(ctx, TokenKey)
	if errors.Is(err, ErrCorrupt) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.Code("SESSION_READ_FAILED").With("key", TokenKey).Wrap(err)
	}
	token, ok := values[TokenKey]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
