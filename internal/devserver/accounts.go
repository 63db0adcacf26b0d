// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package devserver

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
)

// DefaultRole is assigned when a registration names no role.
const DefaultRole = "resident"

// Account is a registered user.
type Account struct {
	ID           ulid.ULID
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Role         string
	Address      *auth.Address
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
}

// Profile returns the account as seen by clients.
func (a *Account) Profile() auth.UserProfile {
	return auth.UserProfile{
		ID:         a.ID.String(),
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Phone:      a.Phone,
		Role:       a.Role,
		Address:    a.Address,
		IsActive:   a.IsActive,
		IsVerified: a.IsVerified,
	}
}

// Error codes returned by Accounts.
const (
	CodeEmailTaken      = "DEVSERVER_EMAIL_TAKEN"
	CodeAccountNotFound = "DEVSERVER_ACCOUNT_NOT_FOUND"
)

// Accounts is an in-memory account and token registry. Safe for concurrent use.
type Accounts struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*Account
	byEmail map[string]ulid.ULID
	tokens  map[string]ulid.ULID // token hash -> account
}

// NewAccounts creates an empty registry.
func NewAccounts() *Accounts {
	return &Accounts{
		byID:    make(map[ulid.ULID]*Account),
		byEmail: make(map[string]ulid.ULID),
		tokens:  make(map[string]ulid.ULID),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new account, assigning its ID and creation time.
// Emails are unique case-insensitively.
func (s *Accounts) Create(acct Account) (*Account, error) {
	key := emailKey(acct.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[key]; taken {
		return nil, oops.Code(CodeEmailTaken).With("email", acct.Email).Errorf("email already registered")
	}

	acct.ID = ulid.Make()
	acct.CreatedAt = time.Now().UTC()
	stored := acct
	s.byID[stored.ID] = &stored
	s.byEmail[key] = stored.ID

	out := stored
	return &out, nil
}

// FindByEmail returns a copy of the account with the given email.
func (s *Accounts) FindByEmail(email string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, false
	}
	out := *s.byID[id]
	return &out, true
}

// SetPasswordHash replaces an account's password hash.
func (s *Accounts) SetPasswordHash(id ulid.ULID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return oops.Code(CodeAccountNotFound).With("account_id", id.String()).Errorf("account not found")
	}
	acct.PasswordHash = hash
	return nil
}

// Bind associates a token hash with an account.
func (s *Accounts) Bind(tokenHash string, id ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = id
}

// Resolve returns a copy of the account bound to the token.
func (s *Accounts) Resolve(token string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[HashToken(token)]
	if !ok {
		return nil, false
	}
	acct, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	out := *acct
	return &out, true
}

// Len returns the number of accounts.
func (s *Accounts) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
