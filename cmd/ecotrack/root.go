// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/apiclient"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/session"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/config"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/logging"
)

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"api-url":         "api.base_url",
	"api-timeout":     "api.timeout",
	"api-retries":     "api.max_retries",
	"session-backend": "session.backend",
	"session-file":    "session.file",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"database-url":    "database.url",
}

// app is the per-invocation state shared by subcommands.
type app struct {
	deps       CLIDeps
	configFile string
	output     string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root command for the ecotrack CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(CLIDeps{})
}

func newRootCmd(deps CLIDeps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "ecotrack",
		Short: "EcoTrack account and session tool",
		Long: `ecotrack signs in to the EcoTrack API and keeps the resulting session
on this machine. It also runs a local development API and the database
maintenance tasks that back bin records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/ecotrack/config.yaml)")
	pf.StringVarP(&a.output, "output", "o", "yaml", "output format: yaml or json")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.String("api-url", "", "API base URL")
	pf.Duration("api-timeout", 0, "per-request API timeout")
	pf.Int("api-retries", 0, "retries for idempotent API requests")
	pf.String("session-backend", "", "session backend: file, memory, redis, or sqlite")
	pf.String("session-file", "", "session file for the file backend")
	pf.String("log-format", "", "log format: json or text")
	pf.String("log-level", "", "log level: debug, info, warn, or error")
	pf.String("database-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newWhoamiCmd(a),
		newSessionCmd(a),
		newPasswdCmd(a),
		newLogoutCmd(a),
		newDevserverCmd(a),
		newMigrateCmd(a),
		newRepairBinIndexesCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	if a.output != "yaml" && a.output != "json" {
		return oops.Code("CLI_INVALID_OUTPUT").With("output", a.output).Errorf("output must be yaml or json")
	}

	cfg, err := config.Load(config.Options{
		Path:     a.configFile,
		Flags:    cmd.Root().PersistentFlags(),
		FlagKeys: flagKeys,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := logging.ParseLevel(cfg.Log.Level)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = logging.SetupWithLevel("ecotrack", version, cfg.Log.Format, level, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}

// sessionStore opens the configured session backend.
func (a *app) sessionStore(ctx context.Context) (*session.Store, error) {
	backend, err := a.deps.BackendFactory(ctx, a.cfg.BackendConfig())
	if err != nil {
		return nil, err
	}
	return session.NewStore(backend, session.WithLogger(a.logger))
}

// manager wires the session store, API client, and auth manager. The
// returned close func releases the session backend.
func (a *app) manager(ctx context.Context) (*auth.Manager, func(), error) {
	store, err := a.sessionStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("closing session store", "error", err)
		}
	}

	opts := []apiclient.Option{apiclient.WithLogger(a.logger)}
	if a.deps.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(a.deps.HTTPClient))
	}
	client, err := apiclient.New(a.cfg.APIClientConfig("ecotrack/"+version), store, opts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	mgr, err := auth.NewManager(client, store, auth.WithLogger(a.logger))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return mgr, closeStore, nil
}
