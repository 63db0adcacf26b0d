// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// render writes v as indented JSON or as YAML. YAML output goes through
// JSON first so both formats use the same field names.
func render(w io.Writer, format string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return oops.Code("CLI_RENDER_FAILED").Wrap(err)
	}

	if format == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, payload, "", "  "); err != nil {
			return oops.Code("CLI_RENDER_FAILED").Wrap(err)
		}
		buf.WriteByte('\n')
		_, err = w.Write(buf.Bytes())
		return oops.Code("CLI_RENDER_FAILED").Wrap(err)
	}

	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return oops.Code("CLI_RENDER_FAILED").Wrap(err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return oops.Code("CLI_RENDER_FAILED").Wrap(err)
	}
	return oops.Code("CLI_RENDER_FAILED").Wrap(enc.Close())
}

// maskToken shows enough of a token to tell sessions apart.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:8] + "..."
}
