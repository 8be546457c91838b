// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package media contains the clients for the external image host.
//
// Two providers implement Host: Cloudinary (signed REST API) and any
// S3-compatible bucket. Breaker wraps either one in a circuit breaker. Hosts
// never retry; the upload package decides whether to try a fallback path.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

var (
	// ErrUpstream is wrapped by every failure reported by a media host,
	// including timeouts and an open circuit.
	ErrUpstream = errors.New("media host failure")

	// ErrInvalidURL means a storage key could not be derived from a URL.
	ErrInvalidURL = errors.New("unrecognized media URL")
)

// Asset is an image ready to store.
type Asset struct {
	// DataURI is a data:image/...;base64, URI.
	DataURI  string
	MIMEType string
	Folder   string
}

// Options tune a primary upload. The fallback path uploads with zero Options.
type Options struct {
	// Transformation is applied by the host on ingest, e.g. "q_auto,f_auto".
	Transformation string

	Tags []string

	// UniqueFilename asks the host to add a random suffix to the stored name.
	UniqueFilename bool
}

// Result describes a stored asset.
type Result struct {
	URL      string
	PublicID string
	Bytes    int64
	Format   string
}

// Host stores and deletes images.
type Host interface {
	Upload(ctx context.Context, asset Asset, opts Options) (*Result, error)
	Delete(ctx context.Context, url string) error
	Name() string
}

// HostError is an error answer from the host's API.
type HostError struct {
	Provider string
	Status   int
	Message  string
}

func (e *HostError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *HostError) Unwrap() error { return ErrUpstream }

// ClientFault reports whether the host refused the request itself (4xx)
// rather than failing.
func (e *HostError) ClientFault() bool {
	return e.Status >= 400 && e.Status < 500
}

// upstream wraps err so it matches ErrUpstream.
func upstream(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstream) {
		return err
	}
	return fmt.Errorf("%s %s: %w: %w", provider, op, ErrUpstream, err)
}

// DecodeDataURI returns the bytes and MIME type of a base64 data URI.
func DecodeDataURI(dataURI string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(strings.ToLower(header), "data:") {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta := header[len("data:"):]
	if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}
	mimeType := strings.ToLower(meta[:len(meta)-len(";base64")])
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some browsers emit unpadded payloads.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("decode base64 payload: %w", err)
		}
	}
	return data, mimeType, nil
}

// ExtensionFor returns a file extension (without dot) for an image MIME type.
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/svg+xml":
		return "svg"
	case "image/avif":
		return "avif"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}
