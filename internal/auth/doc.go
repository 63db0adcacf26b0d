// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Package auth manages the client-side authentication session for EcoTrack.
//
// # Data Contracts
//
// Credentials, RegistrationData, UserProfile, AuthResult and UserResult mirror
// the JSON bodies of the remote authentication API. Optional registration
// fields (Role, Address) are pointers and are omitted when nil.
//
// # Manager
//
// Manager is the single writer of the SessionStore:
//   - Login / Register - one API call; on success with a token, Save the pair
//   - FetchCurrentUser / UpdatePassword - one API call, no local effect
//   - Logout - Clear the store, no API call
//   - CurrentSession - read the store, no API call
//
// A session exists (Authenticated) exactly when the store holds a pair.
// Failed or rejected requests never change it.
//
// Implementations of API live in the apiclient subpackage and of SessionStore
// in the session subpackage.
package auth
