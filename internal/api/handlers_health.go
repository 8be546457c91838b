// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/lenscape/internal/models"
)

const healthPingTimeout = 2 * time.Second

// Health reports store reachability and the media breaker state.
//
// Method: GET
// Path: /api/health
//
// Responses:
//   - 200: {"status": "healthy", ...}
//   - 503: {"status": "degraded", ...} when the store is unreachable or the
//     media circuit is open
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := &models.HealthResponse{
		Status:        "healthy",
		Store:         "ok",
		Media:         "unconfigured",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Version:       h.version,
	}

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Store = "unreachable"
	}
	if h.media != nil {
		resp.Media = h.media.State()
		if resp.Media == "open" {
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, status, resp)
}
