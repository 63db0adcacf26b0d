// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/maintenance"
	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/store"
)

func (a *app) databaseURL() (string, error) {
	if a.cfg.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").
			With("key", "database.url").
			Errorf("database URL is required (--database-url or database.url)")
	}
	return a.cfg.Database.URL, nil
}

func (a *app) migrator() (Migrator, error) {
	url, err := a.databaseURL()
	if err != nil {
		return nil, err
	}
	return a.deps.MigratorFactory(url)
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the bin_records database schema",
		Long:  `Apply, roll back, or inspect the embedded PostgreSQL migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateUp(cmd, a, 0)
		},
	}

	cmd.AddCommand(
		newMigrateUpCmd(a),
		newMigrateDownCmd(a),
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrateStatus(cmd, a)
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrateForce(cmd, a, args[0])
			},
		},
	)
	return cmd
}

func newMigrateUpCmd(a *app) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 0 {
				return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("--steps must be positive")
			}
			return runMigrateUp(cmd, a, steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "apply at most this many migrations (all when 0)")
	return cmd
}

func runMigrateUp(cmd *cobra.Command, a *app, steps int) error {
	m, err := a.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(a, m)

	if steps > 0 {
		err = m.Steps(steps)
	} else {
		err = m.Up()
	}
	if err != nil {
		return err
	}
	status, err := m.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", status.Version)
	return nil
}

func newMigrateDownCmd(a *app) *cobra.Command {
	var (
		yes   bool
		steps int
	)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations, dropping bin_records when all are rolled back",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 0 {
				return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("--steps must be positive")
			}
			if !yes {
				return oops.Code("CLI_CONFIRMATION_REQUIRED").Errorf("migrate down discards bin record data; rerun with --yes")
			}
			m, err := a.migrator()
			if err != nil {
				return err
			}
			defer closeMigrator(a, m)

			if steps > 0 {
				if err := m.Steps(-steps); err != nil {
					return err
				}
				status, err := m.Status()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s); schema at version %d\n", steps, status.Version)
				return nil
			}

			if err := m.Down(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All migrations rolled back")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the rollback")
	cmd.Flags().IntVar(&steps, "steps", 0, "roll back only this many migrations (all when 0)")
	return cmd
}

// migrationStatusOutput is what migrate status prints.
type migrationStatusOutput struct {
	Version uint     `json:"version"`
	Name    string   `json:"name,omitempty"`
	Dirty   bool     `json:"dirty"`
	Applied []string `json:"applied"`
	Pending []string `json:"pending"`
}

func migrationNames(versions []uint) ([]string, error) {
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = fmt.Sprintf("%06d", v)
		}
		names = append(names, name)
	}
	return names, nil
}

func runMigrateStatus(cmd *cobra.Command, a *app) error {
	m, err := a.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(a, m)

	status, err := m.Status()
	if err != nil {
		return err
	}
	out := migrationStatusOutput{Version: status.Version, Dirty: status.Dirty}
	if out.Name, err = store.MigrationName(status.Version); err != nil {
		return err
	}
	if out.Applied, err = migrationNames(status.Applied); err != nil {
		return err
	}
	if out.Pending, err = migrationNames(status.Pending); err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), a.output, out)
}

func parseForceVersion(arg string) (int, error) {
	version, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", arg).Wrap(err)
	}
	if version < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", arg).Errorf("version must be non-negative")
	}
	return version, nil
}

func runMigrateForce(cmd *cobra.Command, a *app, arg string) error {
	version, err := parseForceVersion(arg)
	if err != nil {
		return err
	}
	m, err := a.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(a, m)

	if err := m.Force(version); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Forced schema version to %d\n", version)
	return nil
}

func closeMigrator(a *app, m Migrator) {
	if err := m.Close(); err != nil {
		a.logger.Warn("closing migrator", "error", err)
	}
}

// repairOutput is what repair-bin-indexes prints.
type repairOutput struct {
	Changed bool     `json:"changed"`
	Dropped []string `json:"dropped"`
	Created []string `json:"created"`
	Present []string `json:"present"`
}

func newRepairBinIndexesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repair-bin-indexes",
		Short: "Make bin QR code and RFID tag uniqueness ignore missing values",
		Long: `Replace the unique indexes on bin_records.qr_code and bin_records.rfid_tag
with partial unique indexes that only apply to rows where the column is set.
Safe to run repeatedly. Fails without changes if existing rows share a value.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := a.databaseURL()
			if err != nil {
				return err
			}
			db, err := a.deps.DBConnector(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := maintenance.RepairBinIndexes(cmd.Context(), db, a.logger)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.output, repairOutput{
				Changed: report.Changed(),
				Dropped: nonNil(report.Dropped),
				Created: nonNil(report.Created),
				Present: nonNil(report.Present),
			})
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
