// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Command gen-schema writes the JSON Schema for the persisted user profile.
// With --check it only verifies that the file on disk is current.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth/session"
)

const defaultOut = "schemas/user_profile.schema.json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("gen-schema", pflag.ContinueOnError)
	out := fs.StringP("out", "o", defaultOut, "schema output path")
	check := fs.Bool("check", false, "fail if the schema file is missing or stale instead of writing it")
	if err := fs.Parse(args); err != nil {
		return oops.Code("SCHEMA_INVALID_ARGS").Wrap(err)
	}

	schema, err := session.GenerateProfileSchema()
	if err != nil {
		return err
	}

	if *check {
		current, err := os.ReadFile(*out)
		if err != nil {
			return oops.Code("SCHEMA_STALE").With("path", *out).Wrap(err)
		}
		if !bytes.Equal(bytes.TrimSpace(current), bytes.TrimSpace(schema)) {
			return oops.Code("SCHEMA_STALE").With("path", *out).Errorf("%s is out of date; run gen-schema", *out)
		}
		fmt.Fprintf(stdout, "%s is up to date\n", *out)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o750); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", *out).Wrap(err)
	}
	if err := os.WriteFile(*out, append(schema, '\n'), 0o600); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", *out).Wrap(err)
	}
	fmt.Fprintf(stdout, "Generated %s\n", *out)
	return nil
}
