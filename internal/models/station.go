// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package models

// StationRef describes a weather station owned by the current user.
// Values are fetched from the station-management service and treated as immutable.
type StationRef struct {
	StationNumber string   `json:"station_number" validate:"required,station_number"`
	CustomName    *string  `json:"custom_name,omitempty"`
	IsFavorite    bool     `json:"is_favorite"`
	Location      *string  `json:"location,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// DisplayName returns the custom name when set, otherwise the station number.
func (s StationRef) DisplayName() string {
	if s.CustomName != nil && *s.CustomName != "" {
		return *s.CustomName
	}
	return s.StationNumber
}

// ParameterVisibility is one per-user visibility flag for a station parameter.
// Parameters are created server-side when a station is added (visible by default)
// and are never cached locally across views.
type ParameterVisibility struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Unit         *string `json:"unit,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	IsVisible    bool    `json:"is_visible"`
	DisplayOrder int     `json:"display_order"`
}

// VisibilityUpdate is one entry of a bulk visibility request.
type VisibilityUpdate struct {
	Code    string `json:"code"`
	Visible bool   `json:"visible"`
}

// BulkVisibilityRequest is the body of PATCH /stations/{station}/parameters.
type BulkVisibilityRequest struct {
	Parameters []VisibilityUpdate `json:"parameters"`
}

// SingleVisibilityRequest is the body of PATCH /stations/{station}/parameters/{code}.
type SingleVisibilityRequest struct {
	IsVisible bool `json:"is_visible"`
}

// BulkVisibilityResult reports partial success of a bulk update via counts.
type BulkVisibilityResult struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}
