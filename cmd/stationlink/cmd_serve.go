// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/poller"
	"github.com/tomtom215/stationlink/internal/supervisor"
	"github.com/tomtom215/stationlink/internal/supervisor/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background poller and the metrics endpoint",
	Long: `Run the background poller and an HTTP server exposing /metrics and
/healthz under a supervisor tree. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.cfg
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	var poll *poller.Service
	if cfg.Poller.Enabled {
		poll = poller.New(app.sensors, poller.Config{
			Interval: cfg.Poller.Interval,
			Timeout:  cfg.Poller.Timeout,
		})
		tree.AddWorker(poll)
		logging.Info().Dur("interval", cfg.Poller.Interval).Msg("Poller added to supervisor tree")
	} else {
		logging.Info().Msg("Poller disabled (poller.enabled=false)")
	}

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           newRouter(poll),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}
	tree.AddAPIService(services.NewNamedHTTPServerService("metrics-server", server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Stopped gracefully")
	return nil
}

// newRouter serves /metrics and /healthz. Health fails once the poller has
// gone three intervals without a successful poll; without a poller it only
// reports liveness.
func newRouter(poll *poller.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if poll != nil && !poll.Healthy(time.Now()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = writeJSON(w, healthBody{Status: "degraded", LastError: errString(poll.Last().Err)})
			return
		}
		_ = writeJSON(w, healthBody{Status: "ok"})
	})
	return r
}

type healthBody struct {
	Status    string `json:"status"`
	LastError string `json:"last_error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
