// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session

import (
	"context"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/xdg"
)

// Backend kinds accepted by OpenBackend.
const (
	KindFile   = "file"
	KindMemory = "memory"
	KindRedis  = "redis"
	KindSQLite = "sqlite"
)

// Kinds lists the supported backend kinds.
var Kinds = []string{KindFile, KindMemory, KindRedis, KindSQLite}

// BackendConfig selects and configures a Backend.
type BackendConfig struct {
	Kind       string
	File       string
	SQLitePath string
	Redis      RedisConfig
}

// OpenBackend constructs the backend named by cfg.Kind. Parent directories
// of file and sqlite paths are created with 0700 permissions.
func OpenBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch cfg.Kind {
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindFile, "":
		if err := xdg.EnsureDir(filepath.Dir(cfg.File)); err != nil {
			return nil, err
		}
		return NewFileBackend(cfg.File)
	case KindSQLite:
		if cfg.SQLitePath != ":memory:" {
			if err := xdg.EnsureDir(filepath.Dir(cfg.SQLitePath)); err != nil {
				return nil, err
			}
		}
		return NewSQLiteBackend(ctx, cfg.SQLitePath)
	case KindRedis:
		if cfg.Redis.Addr == "" {
			return nil, oops.Code("SESSION_CONFIG_INVALID").Errorf("redis address is required")
		}
		return NewRedisBackendFromConfig(cfg.Redis), nil
	default:
		return nil, oops.Code("SESSION_CONFIG_INVALID").
			With("backend", cfg.Kind).
			Errorf("unknown session backend %q", cfg.Kind)
	}
}
