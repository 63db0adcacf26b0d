// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Manager turns credentials into a persisted session. It is the only
// caller of the remote API and the only writer of the session store.
//
// Concurrent calls are not coordinated: two racing logins both write the
// store and the last one wins.
type Manager struct {
	api    API
	store  SessionStore
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used by the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over the given API and session store.
func NewManager(api API, store SessionStore, opts ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, oops.Code(CodeInvalidDependency).Errorf("auth API is required")
	}
	if store == nil {
		return nil, oops.Code(CodeInvalidDependency).Errorf("session store is required")
	}

	m := &Manager{
		api:    api,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "auth.manager")
	return m, nil
}

// Login authenticates with the remote API and, when the response carries a
// token, persists the session. Transport errors are returned unchanged and a
// rejected login is returned as data; neither touches the stored session.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	return m.authenticate(ctx, "login", func(ctx context.Context) (*AuthResult, error) {
		return m.api.Login(ctx, creds)
	})
}

// Register creates an account and persists the resulting session under the
// same rules as Login.
func (m *Manager) Register(ctx context.Context, data RegistrationData) (*AuthResult, error) {
	return m.authenticate(ctx, "register", func(ctx context.Context) (*AuthResult, error) {
		return m.api.Register(ctx, data)
	})
}

func (m *Manager) authenticate(
	ctx context.Context,
	operation string,
	call func(context.Context) (*AuthResult, error),
) (*AuthResult, error) {
	started := time.Now()
	log := m.logger.With("operation", operation)

	result, err := call(ctx)
	if err != nil {
		recordOperation(operation, OutcomeTransportError, started)
		log.DebugContext(ctx, "request failed", "error", err)
		//nolint:wrapcheck // transport errors propagate unchanged
		return nil, err
	}

	if !result.Authenticated() {
		recordOperation(operation, OutcomeRejected, started)
		log.DebugContext(ctx, "request rejected, session unchanged",
			"success", result != nil && result.Success)
		return result, nil
	}

	profile := result.Profile()
	if err := m.store.Save(ctx, result.Token(), profile); err != nil {
		recordOperation(operation, OutcomeStoreError, started)
		log.WarnContext(ctx, "session not persisted", "error", err)
		return nil, oops.Code(CodeSessionPersistFailed).
			With("operation", operation).
			With("user_id", profile.ID).
			Wrap(err)
	}

	recordOperation(operation, OutcomeOK, started)
	log.DebugContext(ctx, "session established", "user_id", profile.ID)
	return result, nil
}

// FetchCurrentUser asks the remote API for the profile behind the stored token.
// It never changes the stored session.
func (m *Manager) FetchCurrentUser(ctx context.Context) (*UserResult, error) {
	started := time.Now()
	result, err := m.api.Me(ctx)
	if err != nil {
		recordOperation("me", OutcomeTransportError, started)
		//nolint:wrapcheck // transport errors propagate unchanged
		return nil, err
	}
	outcome := OutcomeOK
	if result == nil || !result.Success {
		outcome = OutcomeRejected
	}
	recordOperation("me", outcome, started)
	return result, nil
}

// UpdatePassword changes the password server-side and returns the response
// body untouched.
func (m *Manager) UpdatePassword(ctx context.Context, currentPassword, newPassword string) (json.RawMessage, error) {
	started := time.Now()
	body, err := m.api.UpdatePassword(ctx, currentPassword, newPassword)
	if err != nil {
		recordOperation("update_password", OutcomeTransportError, started)
		//nolint:wrapcheck // transport errors propagate unchanged
		return nil, err
	}
	recordOperation("update_password", OutcomeOK, started)
	return body, nil
}

// Logout clears the stored session. No request is sent to the server.
func (m *Manager) Logout(ctx context.Context) error {
	started := time.Now()
	if err := m.store.Clear(ctx); err != nil {
		recordOperation("logout", OutcomeStoreError, started)
		return oops.Code(CodeSessionClearFailed).With("operation", "logout").Wrap(err)
	}
	recordOperation("logout", OutcomeOK, started)
	m.logger.DebugContext(ctx, "session cleared", "operation", "logout")
	return nil
}

// CurrentSession returns the stored session, or nil if there is none.
// It never touches the network.
func (m *Manager) CurrentSession(ctx context.Context) (*Session, error) {
	session, err := m.store.Read(ctx)
	if err != nil {
		return nil, oops.Code(CodeSessionReadFailed).With("operation", "current session").Wrap(err)
	}
	return session, nil
}
