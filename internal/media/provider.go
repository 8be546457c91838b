// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/lenscape/internal/config"
)

// ErrNotConfigured means the selected provider is missing required settings.
var ErrNotConfigured = errors.New("media host not configured")

// NewFromConfig builds the configured provider wrapped in a circuit breaker.
func NewFromConfig(ctx context.Context, cfg config.MediaConfig) (*Breaker, error) {
	var host Host
	switch cfg.Provider {
	case "", providerCloudinary:
		c := cfg.Cloudinary
		if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
			return nil, fmt.Errorf("%w: cloudinary cloud name, api key and api secret are required", ErrNotConfigured)
		}
		host = NewCloudinary(c)
	case providerS3:
		if cfg.S3.Bucket == "" || cfg.S3.PublicBaseURL == "" {
			return nil, fmt.Errorf("%w: s3 bucket and public base url are required", ErrNotConfigured)
		}
		s3Host, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		host = s3Host
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
	return NewBreaker(host, DefaultBreakerSettings()), nil
}
