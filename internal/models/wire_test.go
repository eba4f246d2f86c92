// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestEnvelopeDecode(t *testing.T) {
	t.Parallel()

	raw := `{"success": true, "data": [{"station_number": "60000105", "timestamp": 1700000000, "parameters": {"4402": 21.5, "5402": null}}]}`
	var env Envelope[[]StationLatest]
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.Success || len(env.Data) != 1 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if v, ok := env.Data[0].Value("4402"); !ok || v != 21.5 {
		t.Errorf("Value(4402) = (%v, %v)", v, ok)
	}

	var failed Envelope[[]StationLatest]
	if err := json.Unmarshal([]byte(`{"success": false, "error": "bad station"}`), &failed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if failed.Message() != "bad station" {
		t.Errorf("Message() = %q", failed.Message())
	}
}

func TestBulkVisibilityResponseResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want BulkVisibilityResult
	}{
		{"top level", `{"success": true, "updated": 2, "total": 2}`, BulkVisibilityResult{Updated: 2, Total: 2}},
		{"nested", `{"success": true, "data": {"updated": 1, "total": 3}}`, BulkVisibilityResult{Updated: 1, Total: 3}},
		{"empty", `{"success": true}`, BulkVisibilityResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var r BulkVisibilityResponse
			if err := json.Unmarshal([]byte(tt.raw), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := r.Result(); got != tt.want {
				t.Errorf("Result() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
