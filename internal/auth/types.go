// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package auth

// Credentials are the email/password pair sent to log in. Never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Address is a postal address attached to a registration or profile.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// RegistrationData is the body of a registration request.
// Role and Address are optional and omitted from the wire when nil.
type RegistrationData struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Phone     string   `json:"phone"`
	Role      *string  `json:"role,omitempty"`
	Address   *Address `json:"address,omitempty"`
}

// UserProfile is the authenticated identity kept alongside the token.
type UserProfile struct {
	ID         string   `json:"id"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Role       string   `json:"role"`
	Address    *Address `json:"address,omitempty"`
	IsActive   bool     `json:"isActive"`
	IsVerified bool     `json:"isVerified"`
}

// AuthData is the payload of a successful login or registration.
type AuthData struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Token     string `json:"token"`
}

// AuthResult is the response of POST /auth/login and POST /auth/register.
type AuthResult struct {
	Success bool      `json:"success"`
	Data    *AuthData `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Token returns the issued token, or "" if the result carries none.
func (r *AuthResult) Token() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.Token
}

// Authenticated reports whether the result should establish a session.
func (r *AuthResult) Authenticated() bool {
	return r != nil && r.Success && r.Token() != ""
}

// Profile derives the profile persisted for a successful result.
// Returns the zero profile when the result has no data.
func (r *AuthResult) Profile() UserProfile {
	if r == nil || r.Data == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:        r.Data.ID,
		FirstName: r.Data.FirstName,
		LastName:  r.Data.LastName,
		Email:     r.Data.Email,
		Phone:     r.Data.Phone,
		Role:      r.Data.Role,
	}
}

// UserResult is the response of GET /auth/me.
type UserResult struct {
	Success bool         `json:"success"`
	Data    *UserProfile `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Session is the persisted token/profile pair.
type Session struct {
	Token   string      `json:"token"`
	Profile UserProfile `json:"user"`
}
