// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package main

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/stationlink/internal/cache"
)

func TestParseUpdates(t *testing.T) {
	t.Parallel()

	got, err := parseUpdates([]string{"4402=true", "5402=false", "4402=0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got["4402"] || got["5402"] {
		t.Errorf("parseUpdates() = %v, want map[4402:false 5402:false]", got)
	}

	for _, bad := range []string{"4402", "=true", "4402=maybe"} {
		if _, err := parseUpdates([]string{bad}); err == nil {
			t.Errorf("parseUpdates(%q) expected error", bad)
		}
	}
}

func TestParseTimeFlag(t *testing.T) {
	t.Parallel()

	if got, err := parseTimeFlag("start", ""); err != nil || got != nil {
		t.Errorf("empty flag = %v, %v; want nil, nil", got, err)
	}

	got, err := parseTimeFlag("start", "2026-10-01T00:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Unix() != 1790812800 {
		t.Errorf("RFC 3339 flag = %d, want 1790812800", got.Unix())
	}

	before := time.Now().Add(-time.Hour)
	got, err = parseTimeFlag("start", "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Before(before.Add(-time.Second)) || got.After(time.Now()) {
		t.Errorf("duration flag = %v, want about one hour ago", got)
	}

	if _, err := parseTimeFlag("end", "-1h"); err == nil {
		t.Error("negative duration expected error")
	}
	if _, err := parseTimeFlag("end", "yesterday"); err == nil {
		t.Error("garbage expected error")
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		25.5: "25.5",
		0:    "0",
		-12:  "-12",
		-99:  "n/a",
		-150: "n/a",
	}
	for in, want := range tests {
		if got := formatValue(in, cache.DefaultValidator()); got != want {
			t.Errorf("formatValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatValueHonoursConfiguredFloor(t *testing.T) {
	t.Parallel()

	values := cache.New(cache.WithValidator(cache.SentinelValidator{Floor: -50}))
	tests := map[float64]string{
		-49.5: "-49.5",
		-50:   "n/a",
		-60:   "n/a",
	}
	for in, want := range tests {
		if got := formatValue(in, values); got != want {
			t.Errorf("formatValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteStationValuesSorted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := writeStationValues(&buf, map[string]map[string]float64{
		"1002": {"4402": 1},
		"1001": {"5402": 2, "4402": -99},
	}, cache.DefaultValidator())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	want := [][]string{
		{"STATION", "PARAMETER", "VALUE"},
		{"1001", "4402", "n/a"},
		{"1001", "5402", "2"},
		{"1002", "4402", "1"},
	}
	for i, fields := range want {
		if got := strings.Fields(lines[i]); !slices.Equal(got, fields) {
			t.Errorf("line %d = %q, want fields %q", i, got, fields)
		}
	}
}

func TestReadSecretFromPipe(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  abc  \nrefresh"))
	var out bytes.Buffer

	first, err := readSecret(in, &out, -1, "Access token: ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := readSecret(in, &out, -1, "Refresh token: ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "abc" || second != "refresh" {
		t.Errorf("readSecret() = %q, %q; want abc, refresh", first, second)
	}
	if !strings.Contains(out.String(), "Access token: ") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestHealthzWithoutPoller(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}
