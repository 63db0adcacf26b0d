// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package auth

import (
	"context"
	"encoding/json"
)

// API is the remote authentication service. Implementations are the
// transport layer: they own headers, status-code handling, and timeouts.
type API interface {
	// Login sends POST /auth/login.
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)

	// Register sends POST /auth/register.
	Register(ctx context.Context, data RegistrationData) (*AuthResult, error)

	// Me sends GET /auth/me with the stored token attached.
	Me(ctx context.Context) (*UserResult, error)

	// UpdatePassword sends PUT /auth/updatepassword and returns the raw body.
	UpdatePassword(ctx context.Context, currentPassword, newPassword string) (json.RawMessage, error)
}

// SessionStore persists the token/profile pair.
type SessionStore interface {
	// Save writes token and profile together. On error no session may be assumed.
	Save(ctx context.Context, token string, profile UserProfile) error

	// Read returns the stored session, or nil when there is none or the
	// stored profile is unreadable.
	Read(ctx context.Context) (*Session, error)

	// Clear removes both values. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Token returns the stored token regardless of the profile's state.
	Token(ctx context.Context) (string, bool, error)
}
