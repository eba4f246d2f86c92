// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package gateway

import (
	"context"
	"errors"

	"github.com/tomtom215/stationlink/internal/apierror"
)

// propagates reports whether err must reach the caller instead of being
// replaced by a cached or empty value.
func propagates(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch apierror.KindOf(err) {
	case apierror.KindNotLoggedIn, apierror.KindSessionExpired,
		apierror.KindPermission, apierror.KindClient, apierror.KindInvalid:
		return true
	}
	return false
}
