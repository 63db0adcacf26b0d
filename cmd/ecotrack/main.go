// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Package main is the entry point for the ecotrack CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/logging"
	"github.com/OpenshelfTeam/EcoTrack-sub003/pkg/errutil"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Replaced once config is loaded; covers failures before that point.
	logging.SetDefault("ecotrack", version, "text")

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		errutil.LogError(slog.Default(), "command failed", err)
		os.Exit(1)
	}
}
