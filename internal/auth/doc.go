// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

/*
Package auth owns the user's session: token storage, the Authorization header
handed to the transport, and token refresh.

Key Components:

  - TokenStore: persistence of the access token, refresh token and user ID.
    MemoryTokenStore for tests and one-shot use, BadgerTokenStore for a
    durable on-disk session.
  - TokenEncryptor: optional AES-GCM sealing of tokens at rest, keyed by
    HKDF-SHA256 from a base64 master key.
  - Refresher: exchanges a refresh token for a new access token.
    HTTPRefresher calls POST /auth/refresh.
  - SessionManager: the single source of truth for the session.

Refresh Semantics:

At most one refresh runs at a time. Callers that need a refresh while one is
in flight wait for it and share its outcome. A refresh rejected by the server
(401/403) clears the session and notifies OnSessionEnd hooks; a transient
refresh failure keeps the session so the next call can try again.

With RefreshOnExpiry the access token's exp claim is read locally (without
verification) and the token is refreshed proactively shortly before expiry.
With RefreshAlways a refresh only happens after the server rejected a request.

Tokens never appear in logs; see logging.RedactToken.
*/
package auth
