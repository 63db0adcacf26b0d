// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package apiclient_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/apiclient"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/session"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/devserver"
	"github.com/OpenshelfTeam/EcoTrack-sub003/pkg/errutil"
)

// TestSessionLifecycle drives the manager against the dev server with a
// file-backed store, the way the CLI wires them.
func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	dev := devserver.New(devserver.WithHashParams(devserver.HashParams{
		Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
	}))
	srv := httptest.NewServer(dev.Handler("/api"))
	defer srv.Close()

	backend, err := session.NewFileBackend(t.TempDir() + "/session.json")
	require.NoError(t, err)
	store, err := session.NewStore(backend)
	require.NoError(t, err)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api"}, store)
	require.NoError(t, err)
	manager, err := auth.NewManager(client, store)
	require.NoError(t, err)

	registered, err := manager.Register(ctx, auth.RegistrationData{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "analytical",
		Phone:     "555-0100",
	})
	require.NoError(t, err)
	require.True(t, registered.Authenticated())

	current, err := manager.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, registered.Token(), current.Token)
	assert.Equal(t, registered.Data.ID, current.Profile.ID)

	me, err := manager.FetchCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", me.Data.Email)

	_, err = manager.UpdatePassword(ctx, "analytical", "engine")
	require.NoError(t, err)

	// Wrong credentials come back as a 401, which leaves the session alone.
	_, err = manager.Login(ctx, auth.Credentials{Email: "ada@example.com", Password: "analytical"})
	errutil.AssertErrorCode(t, err, "API_STATUS")
	after, err := manager.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, current.Token, after.Token)

	loggedIn, err := manager.Login(ctx, auth.Credentials{Email: "ada@example.com", Password: "engine"})
	require.NoError(t, err)
	after, err = manager.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, loggedIn.Token(), after.Token)

	require.NoError(t, manager.Logout(ctx))
	gone, err := manager.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = manager.FetchCurrentUser(ctx)
	errutil.AssertErrorCode(t, err, "API_STATUS")
}
