// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package auth

import "errors"

var (
	// ErrInvalidCredentials means the login did not match the configured admin,
	// or no admin is configured. The response never says which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated means the request carried no session cookie.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidSession means a session cookie was present but failed
	// verification (signature, payload, algorithm or expiry).
	ErrInvalidSession = errors.New("invalid session")
)
