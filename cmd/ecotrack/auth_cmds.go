// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
)

// authOutput is what login and register print.
type authOutput struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	User    *auth.UserProfile `json:"user,omitempty"`
}

func newAuthOutput(result *auth.AuthResult) authOutput {
	out := authOutput{Success: result.Success, Message: result.Message}
	if result.Authenticated() {
		profile := result.Profile()
		out.User = &profile
	}
	return out
}

// rejection turns an unsuccessful result into a non-zero exit.
func rejection(operation string, result *auth.AuthResult) error {
	if result.Authenticated() {
		return nil
	}
	msg := result.Message
	if msg == "" {
		msg = "no session was issued"
	}
	return oops.Code("CLI_AUTH_REJECTED").With("operation", operation).Errorf("%s rejected: %s", operation, msg)
}

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.deps.PasswordReader("Password: ")
			if err != nil {
				return err
			}

			mgr, closeFn, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := mgr.Login(cmd.Context(), auth.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), a.output, newAuthOutput(result)); err != nil {
				return err
			}
			return rejection("login", result)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag is defined above
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		data    auth.RegistrationData
		role    string
		address auth.Address
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readNewPassword(a.deps.PasswordReader, "Password: ")
			if err != nil {
				return err
			}
			data.Password = password
			if role != "" {
				data.Role = &role
			}
			if address != (auth.Address{}) {
				data.Address = &address
			}

			mgr, closeFn, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := mgr.Register(cmd.Context(), data)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), a.output, newAuthOutput(result)); err != nil {
				return err
			}
			return rejection("register", result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&data.FirstName, "first-name", "", "first name")
	f.StringVar(&data.LastName, "last-name", "", "last name")
	f.StringVar(&data.Email, "email", "", "account email")
	f.StringVar(&data.Phone, "phone", "", "phone number")
	f.StringVar(&role, "role", "", "account role (server default when empty)")
	f.StringVar(&address.Street, "street", "", "street address")
	f.StringVar(&address.City, "city", "", "city")
	f.StringVar(&address.State, "state", "", "state")
	f.StringVar(&address.ZipCode, "zip-code", "", "postal code")
	for _, name := range []string{"first-name", "last-name", "email", "phone"} {
		_ = cmd.MarkFlagRequired(name) //nolint:errcheck // flags are defined above
	}
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the current user from the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, closeFn, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := mgr.FetchCurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if !result.Success || result.Data == nil {
				return oops.Code("CLI_AUTH_REJECTED").With("operation", "whoami").Errorf("whoami rejected: %s", result.Message)
			}
			return render(cmd.OutOrStdout(), a.output, result.Data)
		},
	}
}

// sessionOutput is what the session command prints.
type sessionOutput struct {
	LoggedIn bool              `json:"loggedIn"`
	Token    string            `json:"token,omitempty"`
	User     *auth.UserProfile `json:"user,omitempty"`
}

func newSessionCmd(a *app) *cobra.Command {
	var showToken bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the stored session without contacting the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, closeFn, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			current, err := mgr.CurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			out := sessionOutput{}
			if current != nil {
				out.LoggedIn = true
				out.Token = maskToken(current.Token)
				if showToken {
					out.Token = current.Token
				}
				out.User = &current.Profile
			}
			return render(cmd.OutOrStdout(), a.output, out)
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "print the full bearer token")
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := a.deps.PasswordReader("Current password: ")
			if err != nil {
				return err
			}
			next, err := readNewPassword(a.deps.PasswordReader, "New password: ")
			if err != nil {
				return err
			}

			mgr, closeFn, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			body, err := mgr.UpdatePassword(cmd.Context(), current, next)
			if err != nil {
				return err
			}
			return renderRaw(cmd, a.output, body)
		},
	}
}

// renderRaw prints an opaque server response in the requested format.
func renderRaw(cmd *cobra.Command, format string, body json.RawMessage) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil //nolint:nilerr // non-JSON bodies are printed as-is
	}
	return render(cmd.OutOrStdout(), format, v)
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Long:  `Clears the stored session. The API is not contacted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, closeFn, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := mgr.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
