// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package auth

// Error codes returned by the manager.
const (
	CodeInvalidDependency    = "AUTH_INVALID_DEPENDENCY"
	CodeSessionPersistFailed = "AUTH_SESSION_PERSIST_FAILED"
	CodeSessionClearFailed   = "AUTH_SESSION_CLEAR_FAILED"
	CodeSessionReadFailed    = "AUTH_SESSION_READ_FAILED"
)
