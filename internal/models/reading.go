// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package models

// UnavailableValue is the out-of-range sentinel meaning "no data".
// It is only produced at the API boundary; internally Reading.Valid is used.
const UnavailableValue = -99.0

// ReadingSource identifies where a Reading came from.
type ReadingSource string

const (
	// SourceNetwork marks a value fetched from the remote service in this call.
	SourceNetwork ReadingSource = "network"
	// SourceCache marks a last-known value served from the value cache.
	SourceCache ReadingSource = "cache"
	// SourceNone marks the absence of any valid value.
	SourceNone ReadingSource = "none"
)

// Reading is an optional sensor value with its provenance.
type Reading struct {
	Value  float64       `json:"value"`
	Valid  bool          `json:"valid"`
	Source ReadingSource `json:"source"`
}

// NetworkReading builds a valid reading fetched from the remote service.
func NetworkReading(v float64) Reading {
	return Reading{Value: v, Valid: true, Source: SourceNetwork}
}

// CachedReading builds a valid reading served from the cache.
func CachedReading(v float64) Reading {
	return Reading{Value: v, Valid: true, Source: SourceCache}
}

// NoReading returns the empty reading.
func NoReading() Reading {
	return Reading{Value: UnavailableValue, Valid: false, Source: SourceNone}
}

// Float returns the value, or UnavailableValue when the reading is not valid.
func (r Reading) Float() float64 {
	if !r.Valid {
		return UnavailableValue
	}
	return r.Value
}

// StationLatest is the latest set of values reported by one station.
// A nil parameter value means the station reported no data for that code.
type StationLatest struct {
	StationNumber string              `json:"station_number"`
	Timestamp     int64               `json:"timestamp"`
	Parameters    map[string]*float64 `json:"parameters"`
}

// Value returns the reported value for code, if any.
func (s StationLatest) Value(code string) (float64, bool) {
	v, ok := s.Parameters[code]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// HistoryPoint is one time-series sample. Time is unix seconds.
type HistoryPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}
