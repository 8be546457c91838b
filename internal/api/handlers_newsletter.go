// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/metrics"
	"github.com/tomtom215/lenscape/internal/models"
	"github.com/tomtom215/lenscape/internal/store"
)

// Subscribe adds an address to the newsletter list.
//
// Method: POST
// Path: /api/newsletter
//
// Responses:
//   - 201: {"success": true}
//   - 400: invalid email
//   - 409: already subscribed
//   - 429: rate limited
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in models.SubscribeInput
	if err := decodeJSON(w, r, &in); err != nil {
		metrics.RecordFormSubmission("newsletter", "invalid")
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if verr := validateRequest(&in); verr != nil {
		metrics.RecordFormSubmission("newsletter", "invalid")
		respondValidationError(w, verr)
		return
	}

	sub, err := h.store.Subscribe(r.Context(), &in)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.RecordFormSubmission("newsletter", "duplicate")
			respondJSON(w, http.StatusConflict, &models.ErrorResponse{Error: "Email already subscribed", Code: "CONFLICT"})
			return
		}
		metrics.RecordFormSubmission("newsletter", "error")
		respondStoreError(w, r, "Subscriber", err)
		return
	}

	metrics.RecordFormSubmission("newsletter", "accepted")
	logging.Ctx(r.Context()).Info().Str("subscriber_id", sub.ID).Msg("Newsletter subscription added")
	respondJSON(w, http.StatusCreated, &models.SuccessResponse{Success: true})
}
