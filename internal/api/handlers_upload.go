// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/media"
	"github.com/tomtom215/lenscape/internal/metrics"
	"github.com/tomtom215/lenscape/internal/models"
	"github.com/tomtom215/lenscape/internal/upload"
)

// Upload forwards a base64 image to the media host.
//
// Method: POST
// Path: /api/upload
//
// Admission happens before the body is read, so a rejected request costs
// nothing beyond the counter check. The slot is released on every return.
//
// Request Body:
//
//	{"image": "data:image/png;base64,...", "folder": "products"}
//
// Responses:
//   - 200: {"url": "...", "uploadId": "..."}
//   - 400: missing or malformed image
//   - 413: payload over the size ceiling
//   - 429: admission ceiling reached, with Retry-After
//   - 500: {"error": "...", "uploadId": "..."} when the media host fails
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	uploadID := uuid.New().String()
	ctx := logging.ContextWithNewCorrelationID(r.Context())
	log := logging.Ctx(ctx).With().Str("upload_id", uploadID).Logger()

	release, err := h.admission.Admit()
	if err != nil {
		metrics.RecordUploadOutcome("rejected")
		log.Warn().Int("in_flight", h.admission.InFlight()).Msg("Upload rejected at admission ceiling")
		w.Header().Set("Retry-After", "1")
		respondJSON(w, http.StatusTooManyRequests, &models.ErrorResponse{
			Error: "Too many concurrent uploads. Please try again shortly.",
		})
		return
	}
	defer release()

	if h.uploader == nil {
		metrics.RecordUploadOutcome("unavailable")
		respondJSON(w, http.StatusServiceUnavailable, &models.ErrorResponse{
			Error:    "Image uploads are not configured",
			UploadID: uploadID,
		})
		return
	}

	payload, err := h.validator.Parse(w, r)
	if err != nil {
		var verr *upload.ValidationError
		if !errors.As(err, &verr) {
			verr = &upload.ValidationError{Status: http.StatusBadRequest, Message: "Invalid request body"}
		}
		metrics.RecordUploadOutcome("invalid")
		log.Info().Int("status", verr.Status).Str("reason", verr.Message).Msg("Upload payload rejected")
		respondJSON(w, verr.Status, &models.ErrorResponse{Error: verr.Message})
		return
	}

	res, err := h.uploader.Upload(ctx, uploadID, payload)
	if err != nil {
		metrics.RecordUploadOutcome("failed")
		log.Error().Err(err).Msg("Upload failed")
		respondJSON(w, http.StatusInternalServerError, &models.ErrorResponse{
			Error:    upstreamMessage("Upload failed", err),
			UploadID: uploadID,
		})
		return
	}

	metrics.RecordUploadOutcome("stored")
	respondJSON(w, http.StatusOK, &models.UploadResponse{URL: res.URL, UploadID: uploadID})
}

// DeleteImage removes an uploaded image by its delivery URL. It is not
// subject to the admission ceiling.
//
// Method: POST
// Path: /api/upload/delete
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respondError(w, r, http.StatusBadRequest, "No image URL provided", nil)
		return
	}
	if h.uploader == nil {
		respondError(w, r, http.StatusServiceUnavailable, "Image uploads are not configured", nil)
		return
	}

	if err := h.uploader.Delete(r.Context(), req.URL); err != nil {
		if errors.Is(err, media.ErrInvalidURL) {
			respondError(w, r, http.StatusBadRequest, "Image URL is not managed by this site", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, upstreamMessage("Delete failed", err), err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("url", sanitizeLogValue(req.URL)).Msg("Image deleted")
	respondJSON(w, http.StatusOK, &models.SuccessResponse{Success: true})
}

// upstreamMessage surfaces the host's own message when it sent one.
func upstreamMessage(prefix string, err error) string {
	var hostErr *media.HostError
	if errors.As(err, &hostErr) && hostErr.Message != "" {
		return prefix + ": " + hostErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timed out") {
		return prefix + ": media host timed out"
	}
	return prefix
}
