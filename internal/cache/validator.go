// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package cache

import (
	"math"

	"github.com/tomtom215/stationlink/internal/models"
)

// Validator decides whether a reading is a real value or a no-data marker.
type Validator interface {
	IsValid(v float64) bool
}

// SentinelValidator rejects values at or below Floor. NaN and infinities are
// rejected unless AllowNonFinite is set; -Inf is always at or below Floor.
type SentinelValidator struct {
	Floor          float64
	AllowNonFinite bool
}

// DefaultValidator rejects the -99.0 unavailable marker and anything below it.
func DefaultValidator() SentinelValidator {
	return SentinelValidator{Floor: models.UnavailableValue}
}

// IsValid implements Validator.
func (s SentinelValidator) IsValid(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if !s.AllowNonFinite {
			return false
		}
		return !math.IsInf(v, -1)
	}
	return v > s.Floor
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(v float64) bool

// IsValid implements Validator.
func (f ValidatorFunc) IsValid(v float64) bool { return f(v) }
