// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/stationlink/internal/stationapi"
)

var latestCmd = &cobra.Command{
	Use:   "latest <station> <parameter>",
	Short: "Print the latest value of one parameter",
	Long: `Print the latest value of one parameter. When the service cannot be
reached the last cached value is printed, or n/a if there is none.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reading, err := app.sensors.Latest(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), reading)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", formatValue(reading.Float(), app.values), reading.Source)
		return nil
	},
}

var allCmd = &cobra.Command{
	Use:   "all [station...]",
	Short: "Print the latest visible values of all or selected stations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			values, err := app.sensors.GetLatestAllStations(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), values)
			}
			return writeStationValues(cmd.OutOrStdout(), values, app.values)
		}

		results := app.sensors.GetLatestForStations(cmd.Context(), args)
		values := make(map[string]map[string]float64, len(results))
		for station, res := range results {
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "station %s: %v\n", station, res.Err)
				continue
			}
			codes := make(map[string]float64, len(res.Readings))
			for code, r := range res.Readings {
				codes[code] = r.Float()
			}
			values[station] = codes
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), values)
		}
		return writeStationValues(cmd.OutOrStdout(), values, app.values)
	},
}

var historyFlags struct {
	start string
	end   string
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history <station> <parameter>",
	Short: "Print the history of one parameter, newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := stationapi.HistoryQuery{Limit: historyFlags.limit}
		var err error
		if q.Start, err = parseTimeFlag("start", historyFlags.start); err != nil {
			return err
		}
		if q.End, err = parseTimeFlag("end", historyFlags.end); err != nil {
			return err
		}

		points, err := app.sensors.GetHistory(cmd.Context(), args[0], args[1], q)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), points)
		}
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "TIME\tVALUE")
		for _, p := range points {
			fmt.Fprintf(tw, "%s\t%s\n", time.Unix(p.Time, 0).UTC().Format(time.RFC3339), formatValue(p.Value, app.values))
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyFlags.start, "start", "", "earliest sample (RFC 3339 or duration ago, e.g. 24h)")
	historyCmd.Flags().StringVar(&historyFlags.end, "end", "", "latest sample (RFC 3339 or duration ago)")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 0, "maximum samples (default 1000, capped at 10000)")
	rootCmd.AddCommand(latestCmd, allCmd, historyCmd)
}

// parseTimeFlag accepts an RFC 3339 timestamp or a duration meaning "that long ago".
func parseTimeFlag(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("invalid --%s %q: want RFC 3339 time or positive duration", name, value)
	}
	t := time.Now().Add(-d)
	return &t, nil
}
