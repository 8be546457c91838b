// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lenscape/internal/config"
)

const (
	imageDataPrefix = "data:image/"
	dataPrefix      = "data:"

	// DefaultImagePrefix is prepended to payloads that carry bare base64.
	DefaultImagePrefix = "data:image/jpeg;base64,"

	// DefaultMaxPayloadBytes is the 50 MB transmission ceiling.
	DefaultMaxPayloadBytes int64 = 50 << 20
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("upload validation failed")

// ValidationError is a rejected upload payload with the HTTP status to answer.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(status int, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Payload is a validated upload request.
type Payload struct {
	// DataURI always starts with data:image/.
	DataURI string

	// MIMEType is taken from the data URI, e.g. image/png.
	MIMEType string

	// Folder is an allow-listed storage partition.
	Folder string
}

// rawRequest keeps both fields raw so a missing, null, or mistyped value can
// be told apart.
type rawRequest struct {
	Image  json.RawMessage `json:"image"`
	Folder json.RawMessage `json:"folder"`
}

// Validator checks upload bodies.
type Validator struct {
	// MaxBodyBytes caps the request body (Content-Length and bytes read).
	MaxBodyBytes int64

	// MaxImageBytes caps the decoded image size, estimated as 3/4 of the
	// base64 length.
	MaxImageBytes int64

	DefaultFolder  string
	AllowedFolders []string
}

// NewValidator builds a Validator with the same ceiling for body and image.
func NewValidator(maxBytes int64, defaultFolder string) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	if defaultFolder == "" {
		defaultFolder = "products"
	}
	return &Validator{
		MaxBodyBytes:   maxBytes,
		MaxImageBytes:  maxBytes,
		DefaultFolder:  defaultFolder,
		AllowedFolders: config.AllowedUploadFolders,
	}
}

// Parse reads and validates an upload request. Every failure is a
// *ValidationError.
func (v *Validator) Parse(w http.ResponseWriter, r *http.Request) (*Payload, error) {
	if r.ContentLength > v.MaxBodyBytes {
		return nil, v.tooLarge()
	}
	r.Body = http.MaxBytesReader(w, r.Body, v.MaxBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, v.tooLarge()
		}
		return nil, invalid(http.StatusBadRequest, "Could not read request body")
	}

	var req rawRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, invalid(http.StatusBadRequest, "Invalid request body")
	}
	return v.Validate(req.Image, req.Folder)
}

// Validate checks an already decoded body.
func (v *Validator) Validate(image, folder json.RawMessage) (*Payload, error) {
	if len(image) == 0 || string(image) == "null" {
		return nil, invalid(http.StatusBadRequest, "No image provided")
	}

	var data string
	if err := json.Unmarshal(image, &data); err != nil {
		return nil, invalid(http.StatusBadRequest, "Invalid image format")
	}
	if data == "" {
		return nil, invalid(http.StatusBadRequest, "No image provided")
	}

	if int64(len(data))*3/4 > v.MaxImageBytes {
		return nil, v.tooLarge()
	}

	data, err := normalizeDataURI(data)
	if err != nil {
		return nil, err
	}

	return &Payload{
		DataURI:  data,
		MIMEType: mimeType(data),
		Folder:   v.folder(folder),
	}, nil
}

func (v *Validator) tooLarge() *ValidationError {
	return invalid(http.StatusRequestEntityTooLarge, "File too large. Maximum size is %dMB", v.MaxImageBytes>>20)
}

// folder returns the requested folder when it is a string on the allow-list,
// otherwise the default.
func (v *Validator) folder(raw json.RawMessage) string {
	var name string
	if len(raw) == 0 || json.Unmarshal(raw, &name) != nil {
		return v.DefaultFolder
	}
	return NormalizeFolder(name, v.DefaultFolder, v.AllowedFolders)
}

// NormalizeFolder coerces an unknown folder to def.
func NormalizeFolder(name, def string, allowed []string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if slices.Contains(allowed, name) {
		return name
	}
	return def
}

// normalizeDataURI accepts data:image/ URIs, rejects other data: URIs, and
// treats anything else as bare base64 JPEG.
func normalizeDataURI(data string) (string, error) {
	lower := strings.ToLower(data[:min(len(data), len(imageDataPrefix))])
	switch {
	case strings.HasPrefix(lower, imageDataPrefix):
		return data, nil
	case strings.HasPrefix(lower, dataPrefix):
		return "", invalid(http.StatusBadRequest, "Invalid image format. Only image files are allowed")
	default:
		return DefaultImagePrefix + data, nil
	}
}

// mimeType extracts "image/png" from "data:image/png;base64,...".
func mimeType(dataURI string) string {
	rest := dataURI[len(dataPrefix):]
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		return strings.ToLower(rest[:i])
	}
	return "image/jpeg"
}
