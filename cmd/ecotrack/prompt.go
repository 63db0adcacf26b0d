// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/term"
)

var stdin io.Reader = os.Stdin

// terminalPasswordReader reads without echo from a terminal, and falls back
// to one line per prompt from in otherwise, so passwords can be piped.
func terminalPasswordReader(in io.Reader) func(prompt string) (string, error) {
	var (
		once   sync.Once
		reader *bufio.Reader
	)
	return func(prompt string) (string, error) {
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(os.Stderr, prompt)
			secret, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return "", oops.Code("CLI_PROMPT_FAILED").Wrap(err)
			}
			return string(secret), nil
		}

		once.Do(func() { reader = bufio.NewReader(in) })
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", oops.Code("CLI_PROMPT_FAILED").With("prompt", strings.TrimSpace(prompt)).Wrap(err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

// readNewPassword prompts twice and requires both entries to match.
func readNewPassword(read func(string) (string, error), prompt string) (string, error) {
	first, err := read(prompt)
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", oops.Code("CLI_PASSWORD_EMPTY").Errorf("password cannot be empty")
	}
	second, err := read("Confirm " + strings.ToLower(prompt[:1]) + prompt[1:])
	if err != nil {
		return "", err
	}
	if first != second {
		return "", oops.Code("CLI_PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	return first, nil
}
