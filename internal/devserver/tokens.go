// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package devserver

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the number of random bytes in an issued token.
const TokenBytes = 32

// GenerateToken returns a new hex-encoded bearer token and its SHA-256 hash.
// Only the hash is kept server-side.
func GenerateToken() (token, hash string, err error) {
	raw := make([]byte, TokenBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", "", oops.Code("DEVSERVER_TOKEN_GENERATE_FAILED").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(raw)
	return token, HashToken(token), nil
}

// HashToken computes the hex SHA-256 of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
