// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Package devserver is a local stand-in for the EcoTrack authentication API.
// It keeps accounts in memory and serves the four /auth endpoints the
// client talks to.
package devserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/apiclient"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/observability"
	"github.com/OpenshelfTeam/EcoTrack-sub003/pkg/errutil"
)

const maxRequestBodyBytes = 1 << 20

// Server serves the authentication API.
type Server struct {
	accounts *Accounts
	hasher   *Hasher
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records per-route request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHashParams overrides the argon2id cost parameters.
func WithHashParams(params HashParams) Option {
	return func(s *Server) {
		s.hasher = NewHasher(params)
	}
}

// WithAccounts uses an existing account registry.
func WithAccounts(accounts *Accounts) Option {
	return func(s *Server) {
		if accounts != nil {
			s.accounts = accounts
		}
	}
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		accounts: NewAccounts(),
		hasher:   NewHasher(DefaultHashParams),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "devserver")
	return s
}

// Accounts returns the server's account registry.
func (s *Server) Accounts() *Accounts {
	return s.accounts
}

// Handler returns the router. Routes are mounted under prefix, e.g. "/api".
func (s *Server) Handler(prefix string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Route(strings.TrimRight(prefix, "/"), func(r chi.Router) {
		r.Post(apiclient.RegisterPath, s.handleRegister)
		r.Post(apiclient.LoginPath, s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireBearer)
			r.Get(apiclient.MePath, s.handleMe)
			r.Put(apiclient.UpdatePasswordPath, s.handleUpdatePassword)
		})
	})
	return r
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(route, status, time.Since(started))
		if s.metrics != nil {
			s.metrics.AccountsTotal.Set(float64(s.accounts.Len()))
		}
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(started))
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeFailure(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}
		acct, ok := s.accounts.Resolve(token)
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), acct)))
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegistrationData
	if !decodeBody(w, r, &req) {
		return
	}
	if missing := missingFields(req); len(missing) > 0 {
		writeFailure(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.internalError(w, r, "hash password", err)
		return
	}

	role := DefaultRole
	if req.Role != nil && *req.Role != "" {
		role = *req.Role
	}
	acct, err := s.accounts.Create(Account{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.TrimSpace(req.Email),
		Phone:        req.Phone,
		Role:         role,
		Address:      req.Address,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		if errutil.Code(err) == CodeEmailTaken {
			writeFailure(w, http.StatusConflict, "user already exists")
			return
		}
		s.internalError(w, r, "create account", err)
		return
	}

	s.issue(w, r, acct, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeFailure(w, http.StatusBadRequest, "please provide an email and password")
		return
	}

	acct, ok := s.accounts.FindByEmail(creds.Email)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	match, err := s.hasher.Verify(creds.Password, acct.PasswordHash)
	if err != nil {
		s.internalError(w, r, "verify password", err)
		return
	}
	if !match {
		writeFailure(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !acct.IsActive {
		writeFailure(w, http.StatusForbidden, "account is deactivated")
		return
	}

	s.issue(w, r, acct, http.StatusOK)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())
	profile := acct.Profile()
	writeJSON(w, http.StatusOK, auth.UserResult{Success: true, Data: &profile})
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeFailure(w, http.StatusBadRequest, "current and new password are required")
		return
	}

	acct := accountFrom(r.Context())
	match, err := s.hasher.Verify(req.CurrentPassword, acct.PasswordHash)
	if err != nil {
		s.internalError(w, r, "verify password", err)
		return
	}
	if !match {
		writeFailure(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		s.internalError(w, r, "hash password", err)
		return
	}
	if err := s.accounts.SetPasswordHash(acct.ID, hash); err != nil {
		s.internalError(w, r, "update password", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "password updated",
	})
}

// issue mints a token for acct and writes the auth response.
func (s *Server) issue(w http.ResponseWriter, r *http.Request, acct *Account, status int) {
	token, tokenHash, err := GenerateToken()
	if err != nil {
		s.internalError(w, r, "generate token", err)
		return
	}
	s.accounts.Bind(tokenHash, acct.ID)

	writeJSON(w, status, auth.AuthResult{
		Success: true,
		Data: &auth.AuthData{
			ID:        acct.ID.String(),
			FirstName: acct.FirstName,
			LastName:  acct.LastName,
			Email:     acct.Email,
			Phone:     acct.Phone,
			Role:      acct.Role,
			Token:     token,
		},
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	errutil.LogErrorContext(r.Context(), s.logger, op+" failed", oops.With("route", r.URL.Path).Wrap(err))
	writeFailure(w, http.StatusInternalServerError, "server error")
}

func missingFields(req auth.RegistrationData) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"email", req.Email},
		{"password", req.Password},
		{"phone", req.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, auth.AuthResult{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(body)
}
