// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/media"
	"github.com/tomtom215/lenscape/internal/metrics"
)

const (
	// DefaultPrimaryTimeout bounds the full-options upload attempt.
	DefaultPrimaryTimeout = 60 * time.Second

	// DefaultFallbackTimeout bounds the simplified attempt after a primary
	// failure, and every delete. An upload can therefore spend up to
	// DefaultPrimaryTimeout + DefaultFallbackTimeout on the media host; the
	// HTTP write timeout must be longer than that.
	DefaultFallbackTimeout = 30 * time.Second

	// primaryTransformation asks the host for automatic quality and format.
	primaryTransformation = "q_auto,f_auto"
)

// Uploader sends validated payloads to the media host. The primary attempt
// carries the full options; if it fails, one simplified attempt without
// options follows. It is an alternative path, not a retry of the same call.
type Uploader struct {
	host            media.Host
	primaryTimeout  time.Duration
	fallbackTimeout time.Duration
}

// NewUploader creates an Uploader. Zero timeouts use the defaults.
func NewUploader(host media.Host, primaryTimeout, fallbackTimeout time.Duration) *Uploader {
	if primaryTimeout <= 0 {
		primaryTimeout = DefaultPrimaryTimeout
	}
	if fallbackTimeout <= 0 {
		fallbackTimeout = DefaultFallbackTimeout
	}
	return &Uploader{host: host, primaryTimeout: primaryTimeout, fallbackTimeout: fallbackTimeout}
}

// Upload stores p on the media host.
//
// Parameters:
//   - ctx: request context; cancelling it abandons both attempts
//   - uploadID: correlation ID echoed to the client and logged
//   - p: a payload that already passed Validator.Parse
//
// Returns:
//   - The hosted image on success from either path
//   - error wrapping media.ErrUpstream when both paths fail, carrying the
//     host's message or a "timed out" cause
//
// Paths:
//  1. Primary, within primaryTimeout, with quality and format transformation,
//     the folder as a tag and a unique filename
//  2. Fallback, within fallbackTimeout, with no options at all; skipped when
//     ctx itself is done
func (u *Uploader) Upload(ctx context.Context, uploadID string, p *Payload) (*media.Result, error) {
	log := logging.Ctx(ctx).With().Str("upload_id", uploadID).Str("folder", p.Folder).Logger()
	asset := media.Asset{DataURI: p.DataURI, MIMEType: p.MIMEType, Folder: p.Folder}

	res, err := u.attempt(ctx, "primary", u.primaryTimeout, asset, media.Options{
		Transformation: primaryTransformation,
		Tags:           []string{p.Folder},
		UniqueFilename: true,
	})
	if err == nil {
		log.Info().Str("url", res.URL).Msg("Upload stored")
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrUpstream, ctx.Err())
	}
	log.Warn().Err(err).Msg("Primary upload failed, trying simplified upload")

	res, fallbackErr := u.attempt(ctx, "fallback", u.fallbackTimeout, asset, media.Options{})
	if fallbackErr != nil {
		log.Error().Err(fallbackErr).AnErr("primary_error", err).Msg("Upload failed on both paths")
		if !errors.Is(fallbackErr, media.ErrUpstream) {
			fallbackErr = fmt.Errorf("%w: %w", media.ErrUpstream, fallbackErr)
		}
		return nil, fallbackErr
	}

	log.Info().Str("url", res.URL).Msg("Upload stored via fallback")
	return res, nil
}

// Delete removes an uploaded image by URL.
func (u *Uploader) Delete(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, u.fallbackTimeout)
	defer cancel()

	start := time.Now()
	err := u.host.Delete(ctx, url)
	metrics.RecordMediaCall(u.host.Name(), "delete", time.Since(start), err)
	return err
}

func (u *Uploader) attempt(ctx context.Context, path string, timeout time.Duration, asset media.Asset, opts media.Options) (*media.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := u.host.Upload(ctx, asset, opts)
	metrics.RecordMediaCall(u.host.Name(), path, time.Since(start), err)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s upload timed out after %v: %w", path, timeout, err)
		}
		return nil, err
	}
	return res, nil
}
