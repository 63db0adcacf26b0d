// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/session"
)

func TestRedisBackend_KeyLayout(t *testing.T) {
	tests := []struct {
		name   string
		opts   []session.RedisOption
		prefix string
	}{
		{name: "default prefix", prefix: session.DefaultRedisPrefix},
		{name: "custom prefix", opts: []session.RedisOption{session.WithPrefix("tenant-a:")}, prefix: "tenant-a:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mr := miniredis.RunT(t)
			backend := session.NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), tt.opts...)
			t.Cleanup(func() { _ = backend.Close() })

			require.NoError(t, backend.SetAll(ctx, map[string]string{
				session.TokenKey: "tok",
				session.UserKey:  `{"id":"u1","email":"a@b.com"}`,
			}))

			assert.ElementsMatch(t, []string{tt.prefix + "token", tt.prefix + "user"}, mr.Keys())
			got, err := mr.Get(tt.prefix + "token")
			require.NoError(t, err)
			assert.Equal(t, "tok", got)

			require.NoError(t, backend.Delete(ctx, session.TokenKey, session.UserKey))
			assert.Empty(t, mr.Keys())
		})
	}
}

func TestRedisBackend_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	backend := session.NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = backend.Close() })
	mr.Close()

	_, err := backend.GetAll(context.Background(), session.TokenKey)
	assert.Error(t, err)
}
