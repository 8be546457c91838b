// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"net/http"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/metrics"
	"github.com/tomtom215/lenscape/internal/models"
)

// SubmitContact stores a message from the public contact form.
//
// Method: POST
// Path: /api/contact
//
// Request Body:
//
//	{"name": "...", "email": "...", "message": "...", "company": "...", "product_id": "..."}
//
// Responses:
//   - 201: {"success": true}
//   - 400: invalid body or validation failure
//   - 429: rate limited
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var in models.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		metrics.RecordFormSubmission("contact", "invalid")
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if verr := validateRequest(&in); verr != nil {
		metrics.RecordFormSubmission("contact", "invalid")
		respondValidationError(w, verr)
		return
	}

	msg, err := h.store.CreateContact(r.Context(), &in)
	if err != nil {
		metrics.RecordFormSubmission("contact", "error")
		respondStoreError(w, r, "Contact message", err)
		return
	}

	metrics.RecordFormSubmission("contact", "accepted")
	logging.Ctx(r.Context()).Info().Str("contact_id", msg.ID).Msg("Contact message received")
	respondJSON(w, http.StatusCreated, &models.SuccessResponse{Success: true})
}
