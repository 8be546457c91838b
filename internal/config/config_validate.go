// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// MinJWTSecretLength is the minimum signing secret length accepted in production.
const MinJWTSecretLength = 32

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be one of development, production, test, got %q", c.Server.Environment)
	}
	if strings.ContainsAny(c.Server.SiteDomain, "/: ") {
		return fmt.Errorf("SITE_DOMAIN must be a bare host name, got %q", c.Server.SiteDomain)
	}
	return nil
}

// validateSecurity enforces the admin principal only in production. Development
// runs unconfigured and the session manager rejects every login.
func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	if !c.IsProduction() {
		return nil
	}

	var missing []string
	if c.Security.AdminEmail == "" {
		missing = append(missing, "ADMIN_EMAIL")
	}
	if c.Security.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if c.Security.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Server.SiteDomain == "" {
		missing = append(missing, "SITE_DOMAIN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required in production", strings.Join(missing, ", "))
	}
	if len(c.Security.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", MinJWTSecretLength)
	}
	if !c.Security.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE cannot be disabled in production")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxConcurrent < 1 {
		return fmt.Errorf("UPLOAD_MAX_CONCURRENT must be at least 1, got %d", c.Upload.MaxConcurrent)
	}
	if c.Upload.MaxPayloadBytes < 1 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.Upload.PrimaryTimeout <= 0 || c.Upload.FallbackTimeout <= 0 {
		return fmt.Errorf("UPLOAD_PRIMARY_TIMEOUT and UPLOAD_FALLBACK_TIMEOUT must be positive")
	}
	// A 500 written after the write deadline never reaches the client.
	if wt := c.Server.WriteTimeout; wt > 0 && wt <= c.UploadBudget() {
		return fmt.Errorf("WRITE_TIMEOUT (%v) must exceed UPLOAD_PRIMARY_TIMEOUT + UPLOAD_FALLBACK_TIMEOUT (%v)", wt, c.UploadBudget())
	}
	if !slices.Contains(AllowedUploadFolders, c.Upload.DefaultFolder) {
		return fmt.Errorf("UPLOAD_DEFAULT_FOLDER must be one of %v, got %q", AllowedUploadFolders, c.Upload.DefaultFolder)
	}
	return nil
}

func (c *Config) validateMedia() error {
	switch c.Media.Provider {
	case "cloudinary":
		if c.Media.Cloudinary.BaseURL != "" {
			if err := validateHTTPURL(c.Media.Cloudinary.BaseURL); err != nil {
				return fmt.Errorf("CLOUDINARY_BASE_URL is invalid: %w", err)
			}
		}
		if c.IsProduction() && (c.Media.Cloudinary.CloudName == "" || c.Media.Cloudinary.APIKey == "" || c.Media.Cloudinary.APISecret == "") {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required in production")
		}
	case "s3":
		if c.Media.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when MEDIA_PROVIDER=s3")
		}
		if c.Media.S3.PublicBaseURL == "" {
			return fmt.Errorf("S3_PUBLIC_BASE_URL is required when MEDIA_PROVIDER=s3")
		}
		if err := validateHTTPURL(c.Media.S3.PublicBaseURL); err != nil {
			return fmt.Errorf("S3_PUBLIC_BASE_URL is invalid: %w", err)
		}
		if c.Media.S3.Endpoint != "" {
			if err := validateHTTPURL(c.Media.S3.Endpoint); err != nil {
				return fmt.Errorf("S3_ENDPOINT is invalid: %w", err)
			}
		}
	default:
		return fmt.Errorf("MEDIA_PROVIDER must be cloudinary or s3, got %q", c.Media.Provider)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "off":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is empty")
	}
	return nil
}

// IsProduction reports whether production checks apply.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// AdminConfigured reports whether the admin principal and secret are all set.
func (c *Config) AdminConfigured() bool {
	return c.Security.AdminEmail != "" && c.Security.AdminPassword != "" && c.Security.JWTSecret != ""
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// UploadBudget is the longest an upload request can spend on the media host:
// the primary attempt followed by the fallback attempt.
func (c *Config) UploadBudget() time.Duration {
	return c.Upload.PrimaryTimeout + c.Upload.FallbackTimeout
}
