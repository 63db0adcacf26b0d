// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points XDG directories at a temp dir so tests never read or
// write the user's real config and session.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	return dir
}

// run executes one CLI invocation and returns what it printed to stdout.
func run(t *testing.T, deps CLIDeps, args ...string) (string, error) {
	t.Helper()
	return runContext(context.Background(), t, deps, args...)
}

func runContext(ctx context.Context, t *testing.T, deps CLIDeps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(deps)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	isolate(t)
	out, err := run(t, CLIDeps{}, "--help")
	require.NoError(t, err)

	for _, sub := range []string{
		"login", "register", "whoami", "session", "passwd", "logout",
		"devserver", "migrate", "repair-bin-indexes",
	} {
		assert.Contains(t, out, sub, "help missing %q command", sub)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestRootCommand_InvalidOutput(t *testing.T) {
	isolate(t)
	_, err := run(t, CLIDeps{}, "--output", "xml", "--session-backend", "memory", "session")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output must be yaml or json")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	isolate(t)
	_, err := run(t, CLIDeps{}, "--session-backend", "etcd", "session")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.backend")
}
