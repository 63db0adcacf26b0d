// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Package config loads ecotrack settings from defaults, an optional YAML
// file, and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/apiclient"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/session"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/xdg"
)

// Config is the full ecotrack configuration.
type Config struct {
	API      APIConfig      `koanf:"api"`
	Session  SessionConfig  `koanf:"session"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
}

// APIConfig configures the remote authentication API.
type APIConfig struct {
	BaseURL    string        `koanf:"base_url"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
}

// SessionConfig selects where the session is persisted.
type SessionConfig struct {
	Backend string       `koanf:"backend"`
	File    string       `koanf:"file"`
	Redis   RedisConfig  `koanf:"redis"`
	SQLite  SQLiteConfig `koanf:"sqlite"`
}

// RedisConfig configures the redis session backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// SQLiteConfig configures the sqlite session backend.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures the PostgreSQL connection used by the
// migrate and repair-bin-indexes commands.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// Defaults are applied before any file or flag. Empty session paths are
// resolved against the XDG state directory by Load.
var Defaults = map[string]any{
	"api.base_url":           "http://localhost:5000/api",
	"api.timeout":            apiclient.DefaultTimeout,
	"api.max_retries":        0,
	"session.backend":        session.KindFile,
	"session.file":           "",
	"session.redis.addr":     "localhost:6379",
	"session.redis.password": "",
	"session.redis.db":       0,
	"session.redis.prefix":   session.DefaultRedisPrefix,
	"session.sqlite.path":    "",
	"log.format":             "text",
	"log.level":              "info",
	"database.url":           "",
}

// Options controls where Load reads from.
type Options struct {
	// Path is an explicit config file. A missing explicit file is an error.
	// When empty, the XDG config file is read if it exists.
	Path string
	// Flags are merged last. Only flags named in FlagKeys are read.
	Flags *pflag.FlagSet
	// FlagKeys maps flag names to config keys, e.g. "api-url" -> "api.base_url".
	FlagKeys map[string]string
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	path, explicit, err := configPath(opts.Path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
			}
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := opts.FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configPath(explicit string) (path string, isExplicit bool, err error) {
	if explicit != "" {
		return explicit, true, nil
	}
	path, err = xdg.ConfigFile()
	if err != nil {
		// No home directory: run on defaults and flags alone.
		return "", false, nil //nolint:nilerr // config file is optional
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return "", false, nil //nolint:nilerr // config file is optional
	}
	return path, false, nil
}

func (c *Config) resolvePaths() error {
	if c.Session.File == "" && c.Session.Backend == session.KindFile {
		path, err := xdg.SessionFile()
		if err != nil {
			return oops.Code("CONFIG_INVALID").With("key", "session.file").Wrap(err)
		}
		c.Session.File = path
	}
	if c.Session.SQLite.Path == "" && c.Session.Backend == session.KindSQLite {
		dir, err := xdg.StateDir()
		if err != nil {
			return oops.Code("CONFIG_INVALID").With("key", "session.sqlite.path").Wrap(err)
		}
		c.Session.SQLite.Path = filepath.Join(dir, "session.db")
	}
	return nil
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	invalid := func(key string, value any, msg string) error {
		return oops.Code("CONFIG_INVALID").With("key", key).With("value", value).Errorf("%s: %s", key, msg)
	}

	if c.API.BaseURL == "" {
		return invalid("api.base_url", c.API.BaseURL, "must not be empty")
	}
	if c.API.Timeout <= 0 {
		return invalid("api.timeout", c.API.Timeout, "must be positive")
	}
	if c.API.MaxRetries < 0 {
		return invalid("api.max_retries", c.API.MaxRetries, "must not be negative")
	}
	if !slices.Contains(session.Kinds, c.Session.Backend) {
		return invalid("session.backend", c.Session.Backend, "must be one of file, memory, redis, sqlite")
	}
	if c.Session.Backend == session.KindRedis && c.Session.Redis.Addr == "" {
		return invalid("session.redis.addr", c.Session.Redis.Addr, "required for the redis backend")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", c.Log.Format, "must be json or text")
	}
	return nil
}

// APIClientConfig converts the API section for apiclient.New.
func (c *Config) APIClientConfig(userAgent string) apiclient.Config {
	return apiclient.Config{
		BaseURL:    c.API.BaseURL,
		Timeout:    c.API.Timeout,
		MaxRetries: c.API.MaxRetries,
		UserAgent:  userAgent,
	}
}

// BackendConfig converts the session section for session.OpenBackend.
func (c *Config) BackendConfig() session.BackendConfig {
	return session.BackendConfig{
		Kind:       c.Session.Backend,
		File:       c.Session.File,
		SQLitePath: c.Session.SQLite.Path,
		Redis: session.RedisConfig{
			Addr:     c.Session.Redis.Addr,
			Password: c.Session.Redis.Password,
			DB:       c.Session.Redis.DB,
			Prefix:   c.Session.Redis.Prefix,
		},
	}
}
