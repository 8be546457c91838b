// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package models

import "time"

// APIResponse wraps catalog and admin collection responses.
//
//	{
//	  "status": "success",
//	  "data": [...],
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "cached": true}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata is attached to every APIResponse.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON response. Error is always set;
// Code and Details are present for validation and store errors.
//
//	{"error": "Too many concurrent uploads"}
//	{"error": "name is required", "code": "VALIDATION_ERROR", "details": {"field": "name"}}
type ErrorResponse struct {
	Error    string                 `json:"error"`
	Code     string                 `json:"code,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	UploadID string                 `json:"uploadId,omitempty"`
}

// LoginRequest is the admin login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse answers login and logout.
type SessionResponse struct {
	Success    bool   `json:"success"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// UploadResponse answers a successful upload.
type UploadResponse struct {
	URL      string `json:"url"`
	UploadID string `json:"uploadId"`
}

// DeleteImageRequest is the body of POST /api/upload/delete.
type DeleteImageRequest struct {
	URL string `json:"url"`
}

// SuccessResponse is the {"success": true} acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string  `json:"status"` // "healthy" | "degraded"
	Store         string  `json:"store"`
	Media         string  `json:"media"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
}
