// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	fields := requireOops(t, err).Context()
	require.Contains(t, fields, key)
	assert.Equal(t, value, fields[key])
}

// AssertError asserts the code and every listed context field at once.
func AssertError(t *testing.T, err error, code string, fields map[string]any) {
	t.Helper()
	oopsErr := requireOops(t, err)
	assert.Equal(t, code, oopsErr.Code())
	got := oopsErr.Context()
	for k, v := range fields {
		if assert.Contains(t, got, k) {
			assert.Equal(t, v, got[k], "context %q", k)
		}
	}
}
