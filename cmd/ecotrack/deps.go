// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"context"
	"io"
	"net/http"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/session"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/maintenance"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/observability"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/store"
)

// CLIDeps contains injectable dependencies for the ecotrack commands.
// All fields with nil values will use their default implementations.
type CLIDeps struct {
	// BackendFactory opens the session backend.
	// Default: session.OpenBackend
	BackendFactory func(ctx context.Context, cfg session.BackendConfig) (session.Backend, error)

	// HTTPClient is used for API requests.
	// Default: an http.Client with the configured timeout
	HTTPClient *http.Client

	// PasswordReader prompts for a secret without echoing it.
	// Default: terminal prompt, or a line from Stdin when it is not a terminal
	PasswordReader func(prompt string) (string, error)

	// Stdin is read for non-interactive password input.
	// Default: os.Stdin
	Stdin io.Reader

	// DBConnector opens the PostgreSQL pool for maintenance commands.
	// Default: store.Connect
	DBConnector func(ctx context.Context, url string) (BinIndexDB, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ObservabilityServerFactory creates the dev server's metrics server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// BinIndexDB wraps the pool methods used by repair-bin-indexes.
type BinIndexDB interface {
	maintenance.DB
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (*store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d CLIDeps) withDefaults() CLIDeps {
	if d.BackendFactory == nil {
		d.BackendFactory = session.OpenBackend
	}
	if d.Stdin == nil {
		d.Stdin = stdin
	}
	if d.PasswordReader == nil {
		d.PasswordReader = terminalPasswordReader(d.Stdin)
	}
	if d.DBConnector == nil {
		d.DBConnector = func(ctx context.Context, url string) (BinIndexDB, error) {
			pool, err := store.Connect(ctx, url)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	return d
}
