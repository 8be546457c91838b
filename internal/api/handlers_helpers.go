// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/models"
	"github.com/tomtom215/lenscape/internal/store"
	"github.com/tomtom215/lenscape/internal/validation"
)

// maxJSONBody caps non-upload request bodies.
const maxJSONBody = 1 << 20

// errBadBody is returned by decodeJSON for unreadable or malformed bodies.
var errBadBody = errors.New("invalid request body")

// sanitizeLogValue removes control characters from strings to prevent log
// injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes v as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData wraps data in the APIResponse envelope.
func respondData(w http.ResponseWriter, status int, data interface{}, start time.Time, cached bool) {
	meta := models.Metadata{
		Timestamp:   time.Now().UTC(),
		QueryTimeMS: time.Since(start).Milliseconds(),
		Cached:      cached,
	}
	if n, ok := collectionLen(data); ok {
		meta.Count = &n
	}
	respondJSON(w, status, &models.APIResponse{Status: "success", Data: data, Metadata: meta})
}

// respondCacheable writes a public GET response with a weak ETag and answers
// 304 when the client already holds it. The ETag covers data only, so it is
// stable across the changing metadata timestamp but not byte-for-byte.
func respondCacheable(w http.ResponseWriter, r *http.Request, data interface{}, start time.Time, cached bool) {
	payload, err := json.Marshal(data)
	if err == nil {
		etag := `W/"` + generateETag(payload) + `"`
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Header().Set("Vary", "Accept-Encoding")
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	respondData(w, http.StatusOK, data, start, cached)
}

// etagMatches applies the weak comparison of If-None-Match: any listed tag,
// with or without the W/ prefix, or "*".
func etagMatches(header, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// generateETag creates a simple ETag from data using FNV-1a hash.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends {"error": message}. err, when set, is logged but never
// sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Int("status", status).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, &models.ErrorResponse{Error: message})
}

// respondValidationError sends a 400 with the VALIDATION_ERROR code.
func respondValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, http.StatusBadRequest, &models.ErrorResponse{
		Error:   apiErr.Message,
		Code:    apiErr.Code,
		Details: apiErr.Details,
	})
}

// respondStoreError maps store errors to HTTP statuses.
func respondStoreError(w http.ResponseWriter, r *http.Request, resource string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, resource+" not found", nil)
	case errors.Is(err, store.ErrConflict):
		respondJSON(w, http.StatusConflict, &models.ErrorResponse{Error: conflictMessage(err), Code: "CONFLICT"})
	case errors.Is(err, store.ErrInvalidReference):
		respondJSON(w, http.StatusBadRequest, &models.ErrorResponse{Error: conflictMessage(err), Code: "INVALID_REFERENCE"})
	default:
		respondError(w, r, http.StatusInternalServerError, "Internal server error", err)
	}
}

// conflictMessage returns the store's description without the sentinel text.
func conflictMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{store.ErrConflict, store.ErrInvalidReference} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return msg
}

// decodeJSON reads a JSON body of at most maxJSONBody bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

// validateRequest runs struct validation; nil means valid.
func validateRequest(v interface{}) *validation.RequestValidationError {
	return validation.ValidateStruct(v)
}

func collectionLen(data interface{}) (int, bool) {
	switch v := data.(type) {
	case []*models.Category:
		return len(v), true
	case []*models.Product:
		return len(v), true
	case []*models.ContactMessage:
		return len(v), true
	case []*models.Subscriber:
		return len(v), true
	case []models.Industry:
		return len(v), true
	}
	return 0, false
}
