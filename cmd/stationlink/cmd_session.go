// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomtom215/stationlink/internal/config"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/models"
)

var loginUser string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a session",
	Long: `Store the access and refresh tokens issued by the station service.
Tokens are read without echo when stdin is a terminal, one per line otherwise.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.session.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := app.session.UserID(cmd.Context())
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", userID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "user ID the tokens belong to")
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if app.cfg.Session.Store != config.StoreBadger {
		logging.Warn().Msg("Session store is in-memory; the session ends when this command exits")
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()
	fd := int(os.Stdin.Fd())

	access, err := readSecret(in, out, fd, "Access token: ")
	if err != nil {
		return err
	}
	if access == "" {
		return errors.New("access token cannot be empty")
	}
	refresh, err := readSecret(in, out, fd, "Refresh token (optional): ")
	if err != nil {
		return err
	}

	session := models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       loginUser,
	}
	if err := app.session.SaveSession(cmd.Context(), session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Session stored")
	return nil
}

// readSecret prompts on out and reads one value. When fd is a terminal the
// value is read from it without echo; otherwise one line is read from in.
func readSecret(in *bufio.Reader, out io.Writer, fd int, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
