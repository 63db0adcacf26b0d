// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultRedisPrefix namespaces the session keys in a shared Redis.
const DefaultRedisPrefix = "ecotrack:session:"

// RedisBackend stores each key as a Redis string under a common prefix.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

var _ Backend = (*RedisBackend)(nil)

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(b *RedisBackend) {
		b.prefix = prefix
	}
}

// RedisConfig holds connection settings for NewRedisBackendFromConfig.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client redis.UniversalClient, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewRedisBackendFromConfig dials a new client from cfg.
func NewRedisBackendFromConfig(cfg RedisConfig) *RedisBackend {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	var opts []RedisOption
	if cfg.Prefix != "" {
		opts = append(opts, WithPrefix(cfg.Prefix))
	}
	return NewRedisBackend(client, opts...)
}

func (b *RedisBackend) key(k string) string {
	return b.prefix + k
}

// GetAll implements Backend with a single MGET.
func (b *RedisBackend) GetAll(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}

	vals, err := b.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, oops.Code("SESSION_REDIS_READ_FAILED").With("keys", keys).Wrap(err)
	}

	out := make(map[string]string, len(keys))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// SetAll implements Backend inside MULTI/EXEC.
func (b *RedisBackend) SetAll(ctx context.Context, values map[string]string) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, b.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return oops.Code("SESSION_REDIS_WRITE_FAILED").Wrap(err)
	}
	return nil
}

// Delete implements Backend with a single DEL.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.client.Del(ctx, full...).Err(); err != nil {
		return oops.Code("SESSION_REDIS_DELETE_FAILED").With("keys", keys).Wrap(err)
	}
	return nil
}

// Close closes the underlying client.
func (b *RedisBackend) Close() error {
	if err := b.client.Close(); err != nil {
		return oops.Code("SESSION_REDIS_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
