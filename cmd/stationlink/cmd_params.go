// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/stationlink/internal/models"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List and change parameter visibility",
}

var paramsListCmd = &cobra.Command{
	Use:   "list <station>",
	Short: "List the parameters of a station with their visibility",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := app.visibility.ListWithVisibility(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), params)
		}
		return writeParameters(cmd.OutOrStdout(), params)
	},
}

var paramsShowCmd = &cobra.Command{
	Use:   "show <station> [parameter]",
	Short: "Make one parameter, or all of them, visible",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleVisibility(cmd, args, true)
	},
}

var paramsHideCmd = &cobra.Command{
	Use:   "hide <station> [parameter]",
	Short: "Hide one parameter, or all of them",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleVisibility(cmd, args, false)
	},
}

var paramsSetCmd = &cobra.Command{
	Use:   "set <station> <code=true|false>...",
	Short: "Change the visibility of several parameters in one request",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates, err := parseUpdates(args[1:])
		if err != nil {
			return err
		}
		res, err := app.visibility.SetMultipleVisibility(cmd.Context(), args[0], updates)
		if err != nil {
			return err
		}
		return writeBulkResult(cmd, res)
	},
}

func init() {
	paramsCmd.AddCommand(paramsListCmd, paramsShowCmd, paramsHideCmd, paramsSetCmd)
	rootCmd.AddCommand(paramsCmd)
}

func toggleVisibility(cmd *cobra.Command, args []string, visible bool) error {
	station := args[0]
	if len(args) == 1 {
		var (
			res models.BulkVisibilityResult
			err error
		)
		if visible {
			res, err = app.visibility.ShowAll(cmd.Context(), station)
		} else {
			res, err = app.visibility.HideAll(cmd.Context(), station)
		}
		if err != nil {
			return err
		}
		return writeBulkResult(cmd, res)
	}

	ok, err := app.visibility.SetVisibility(cmd.Context(), station, args[1], visible)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("station service did not accept the change to %s", args[1])
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Updated")
	return nil
}

// parseUpdates reads code=bool pairs. A repeated code keeps the last value.
func parseUpdates(pairs []string) (map[string]bool, error) {
	updates := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		code, raw, found := strings.Cut(pair, "=")
		if !found || code == "" {
			return nil, fmt.Errorf("invalid update %q: want code=true or code=false", pair)
		}
		visible, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid update %q: %w", pair, err)
		}
		updates[code] = visible
	}
	return updates, nil
}

func writeBulkResult(cmd *cobra.Command, res models.BulkVisibilityResult) error {
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d of %d parameters\n", res.Updated, res.Total)
	return nil
}
