// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"context"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tomtom215/stationlink/internal/config"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	jsonOutput bool

	// app is built once per invocation by the root pre-run hook.
	app *stack
)

var rootCmd = &cobra.Command{
	Use:           "stationlink",
	Version:       version,
	Short:         "Authenticated weather station data client",
	Long:          `Read sensor values, manage parameter visibility and run the background poller.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logging.Init(cfg.Logging.ToLogging())
		metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

		app, err = buildStack(cmd.Context(), cfg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func main() {
	ctx := logging.ContextWithNewCorrelationID(context.Background())
	err := rootCmd.ExecuteContext(ctx)

	if app != nil {
		if closeErr := app.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing resources")
		}
	}
	if err != nil {
		logging.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
