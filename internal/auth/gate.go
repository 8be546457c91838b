// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/metrics"
	"github.com/tomtom215/lenscape/internal/models"
)

const (
	// AdminRoot redirects to AdminDashboard before any session check.
	AdminRoot      = "/admin"
	AdminDashboard = "/admin/dashboard"
	LoginPath      = "/admin-login"
)

// Gate protects the admin pages. Requests for exactly /admin are sent to the
// dashboard first, so an anonymous visitor sees two redirects: /admin, then
// /admin/dashboard, then the login page. /admin/ is an ordinary gated path.
//
// Paths outside /admin and /admin/* pass through untouched.
func (m *SessionManager) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == AdminRoot {
			http.Redirect(w, r, AdminDashboard, http.StatusTemporaryRedirect)
			return
		}
		if !strings.HasPrefix(path, AdminRoot+"/") {
			next.ServeHTTP(w, r)
			return
		}

		if _, err := m.VerifySession(r); err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", path).Msg("Admin page session rejected")
			metrics.RecordSessionVerification("page", verificationResult(err))
			if errors.Is(err, ErrInvalidSession) {
				m.EndSession(w)
			}
			http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
			return
		}

		metrics.RecordSessionVerification("page", "ok")
		next.ServeHTTP(w, r)
	})
}

// RequireAPISession protects JSON endpoints. Failures answer 401 with
// {"error":"Unauthorized"}; a cookie that fails verification is also cleared.
func (m *SessionManager) RequireAPISession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.VerifySession(r); err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("API session rejected")
			metrics.RecordSessionVerification("api", verificationResult(err))
			if errors.Is(err, ErrInvalidSession) {
				m.EndSession(w)
			}
			writeUnauthorized(w)
			return
		}

		metrics.RecordSessionVerification("api", "ok")
		next.ServeHTTP(w, r)
	})
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "missing"
	case IsExpired(err):
		return "expired"
	default:
		return "invalid"
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Unauthorized"}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode unauthorized response")
	}
}
