// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/session"
	"github.com/OpenshelfTeam/EcoTrack-sub003/pkg/errutil"
)

func sampleProfile() auth.UserProfile {
	return auth.UserProfile{
		ID:        "665f1c2ab7",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "a@b.com",
		Phone:     "555-0100",
		Role:      "resident",
		Address: &auth.Address{
			Street:  "1 Analytical Way",
			City:    "London",
			State:   "LDN",
			ZipCode: "N1 9GU",
		},
		IsActive:   true,
		IsVerified: false,
	}
}

// backends returns a fresh instance of every backend implementation.
func backends(t *testing.T) map[string]session.Backend {
	t.Helper()
	ctx := context.Background()

	fileBackend, err := session.NewFileBackend(filepath.Join(t.TempDir(), "state", "session.json"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisBackend := session.NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	sqliteBackend, err := session.NewSQLiteBackend(ctx, filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)

	all := map[string]session.Backend{
		"memory": session.NewMemoryBackend(),
		"file":   fileBackend,
		"redis":  redisBackend,
		"sqlite": sqliteBackend,
	}
	t.Cleanup(func() {
		for _, b := range all {
			_ = b.Close()
		}
	})
	return all
}

func TestStore_Contract(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := session.NewStore(backend)
			require.NoError(t, err)

			t.Run("empty store has no session", func(t *testing.T) {
				got, err := store.Read(ctx)
				require.NoError(t, err)
				assert.Nil(t, got)

				token, ok, err := store.Token(ctx)
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Empty(t, token)
			})

			t.Run("save then read round-trips the pair", func(t *testing.T) {
				profile := sampleProfile()
				require.NoError(t, store.Save(ctx, "tok1", profile))

				got, err := store.Read(ctx)
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, "tok1", got.Token)
				assert.Equal(t, profile, got.Profile)

				token, ok, err := store.Token(ctx)
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "tok1", token)
			})

			t.Run("second save overwrites the first", func(t *testing.T) {
				second := sampleProfile()
				second.ID = "second"
				second.Address = nil
				require.NoError(t, store.Save(ctx, "tok2", second))

				got, err := store.Read(ctx)
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, "tok2", got.Token)
				assert.Equal(t, second, got.Profile)
			})

			t.Run("clear is idempotent", func(t *testing.T) {
				for range 3 {
					require.NoError(t, store.Clear(ctx))
					got, err := store.Read(ctx)
					require.NoError(t, err)
					assert.Nil(t, got)
				}
			})

			t.Run("corrupt profile reads as no session and clears the token", func(t *testing.T) {
				require.NoError(t, store.Save(ctx, "tok3", sampleProfile()))
				require.NoError(t, backend.SetAll(ctx, map[string]string{session.UserKey: "{not json"}))

				token, ok, err := store.Token(ctx)
				require.NoError(t, err)
				assert.True(t, ok, "token is readable independent of the profile")
				assert.Equal(t, "tok3", token)

				got, err := store.Read(ctx)
				require.NoError(t, err)
				assert.Nil(t, got)

				_, ok, err = store.Token(ctx)
				require.NoError(t, err)
				assert.False(t, ok, "orphaned token is removed")
			})

			t.Run("sparse profile round-trips", func(t *testing.T) {
				for _, profile := range []auth.UserProfile{
					{FirstName: "A", Email: "a@b.com"},
					{ID: "u1"},
					{},
				} {
					require.NoError(t, store.Save(ctx, "tok-sparse", profile))

					got, err := store.Read(ctx)
					require.NoError(t, err)
					require.NotNil(t, got, "profile %+v", profile)
					assert.Equal(t, "tok-sparse", got.Token)
					assert.Equal(t, profile, got.Profile)

					token, ok, err := store.Token(ctx)
					require.NoError(t, err)
					assert.True(t, ok)
					assert.Equal(t, "tok-sparse", token)
				}
			})

			t.Run("profile with wrong field types reads as no session", func(t *testing.T) {
				require.NoError(t, backend.SetAll(ctx, map[string]string{
					session.TokenKey: "tok4",
					session.UserKey:  `{"id":42,"isActive":"yes"}`,
				}))

				got, err := store.Read(ctx)
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("token without profile reads as no session", func(t *testing.T) {
				require.NoError(t, store.Clear(ctx))
				require.NoError(t, backend.SetAll(ctx, map[string]string{session.TokenKey: "lonely"}))

				got, err := store.Read(ctx)
				require.NoError(t, err)
				assert.Nil(t, got)

				_, ok, err := store.Token(ctx)
				require.NoError(t, err)
				assert.False(t, ok)
			})
		})
	}
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	backend := session.NewMemoryBackend()
	store, err := session.NewStore(backend)
	require.NoError(t, err)

	err = store.Save(context.Background(), "", sampleProfile())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SESSION_TOKEN_EMPTY")

	values, err := backend.GetAll(context.Background(), session.TokenKey, session.UserKey)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestNewStore_NilBackend(t *testing.T) {
	store, err := session.NewStore(nil)
	require.Error(t, err)
	assert.Nil(t, store)
	errutil.AssertErrorCode(t, err, "SESSION_INVALID_BACKEND")
}

type failingBackend struct {
	session.Backend
	setErr error
	getErr error
	delErr error
}

func (f *failingBackend) SetAll(ctx context.Context, values map[string]string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Backend.SetAll(ctx, values)
}

func (f *failingBackend) GetAll(ctx context.Context, keys ...string) (map[string]string, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Backend.GetAll(ctx, keys...)
}

func (f *failingBackend) Delete(ctx context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	return f.Backend.Delete(ctx, keys...)
}

func TestStore_BackendFailures(t *testing.T) {
	ctx := context.Background()
	quota := errors.New("quota exceeded")

	t.Run("save failure is reported", func(t *testing.T) {
		store, err := session.NewStore(&failingBackend{Backend: session.NewMemoryBackend(), setErr: quota})
		require.NoError(t, err)

		err = store.Save(ctx, "tok", sampleProfile())
		require.Error(t, err)
		assert.ErrorIs(t, err, quota)
		errutil.AssertErrorCode(t, err, "SESSION_SAVE_FAILED")
	})

	t.Run("read failure is reported", func(t *testing.T) {
		store, err := session.NewStore(&failingBackend{Backend: session.NewMemoryBackend(), getErr: quota})
		require.NoError(t, err)

		got, err := store.Read(ctx)
		require.Error(t, err)
		assert.Nil(t, got)
		errutil.AssertErrorCode(t, err, "SESSION_READ_FAILED")
	})

	t.Run("clear failure is reported", func(t *testing.T) {
		store, err := session.NewStore(&failingBackend{Backend: session.NewMemoryBackend(), delErr: quota})
		require.NoError(t, err)

		err = store.Clear(ctx)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_CLEAR_FAILED")
	})

	t.Run("failure to discard a corrupt session still reads as none", func(t *testing.T) {
		inner := session.NewMemoryBackend()
		require.NoError(t, inner.SetAll(ctx, map[string]string{
			session.TokenKey: "tok",
			session.UserKey:  "garbage",
		}))
		store, err := session.NewStore(&failingBackend{Backend: inner, delErr: quota})
		require.NoError(t, err)

		got, err := store.Read(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
