// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/lenscape/internal/auth"
	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/metrics"
	"github.com/tomtom215/lenscape/internal/models"
)

// Login checks the admin credentials and sets the admin_token cookie.
//
// Method: POST
// Path: /api/admin/login
//
// Request Body:
//
//	{"email": "admin@example.com", "password": "..."}
//
// Responses:
//   - 200: {"success": true, "redirectTo": "/admin/dashboard"} plus Set-Cookie
//   - 400: body is not JSON
//   - 401: {"error": "Invalid credentials"}
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.RecordLogin("bad_request")
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cookie, err := h.sessions.IssueSession(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.RecordLogin("invalid")
			logging.Ctx(r.Context()).Info().Msg("Admin login rejected")
			respondError(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		metrics.RecordLogin("error")
		respondError(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	metrics.RecordLogin("success")
	logging.Ctx(r.Context()).Info().Msg("Admin logged in")
	http.SetCookie(w, cookie)
	respondJSON(w, http.StatusOK, &models.SessionResponse{Success: true, RedirectTo: auth.AdminDashboard})
}

// Logout clears the session cookie. Tokens are stateless, so a copied token
// stays valid until it expires.
//
// Method: POST
// Path: /api/admin/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.EndSession(w)
	logging.Ctx(r.Context()).Info().Msg("Admin logged out")
	respondJSON(w, http.StatusOK, &models.SessionResponse{Success: true, RedirectTo: auth.LoginPath})
}
