// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package config loads and validates Lenscape configuration.
//
// Configuration is layered with Koanf v2 (highest priority wins):
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, or config.yaml in the working directory)
//  3. Environment variables (ADMIN_EMAIL, JWT_SECRET, UPLOAD_MAX_CONCURRENT, ...)
//
// Secrets (admin credentials, signing secret, media API keys) have no defaults.
// In production the loader refuses to return a Config while any of them is
// missing; in development the server starts and rejects every login instead.
//
// Config is immutable after Load and safe for concurrent reads.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Upload   UploadConfig   `koanf:"upload"`
	Media    MediaConfig    `koanf:"media"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`

	// SiteDomain pins the session cookie Domain attribute. Empty means host-only.
	SiteDomain string `koanf:"site_domain"`
}

// SecurityConfig holds the admin principal and session signing settings.
//
// Environment Variables:
//   - ADMIN_EMAIL, ADMIN_PASSWORD: the single admin principal
//   - JWT_SECRET: HMAC-SHA256 signing secret (32+ characters in production)
//   - COOKIE_SECURE: Secure flag on the session cookie (default: true)
//   - CORS_ORIGINS: comma-separated allowed origins for /api
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW: public form throttling
type SecurityConfig struct {
	AdminEmail        string        `koanf:"admin_email"`
	AdminPassword     string        `koanf:"admin_password"`
	JWTSecret         string        `koanf:"jwt_secret"`
	CookieSecure      bool          `koanf:"cookie_secure"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// UploadConfig controls the upload gateway.
type UploadConfig struct {
	// MaxConcurrent is the admission ceiling for in-flight uploads.
	MaxConcurrent int `koanf:"max_concurrent"`

	// MaxPayloadBytes caps both the request body and the decoded image estimate.
	MaxPayloadBytes int64 `koanf:"max_payload_bytes"`

	PrimaryTimeout  time.Duration `koanf:"primary_timeout"`
	FallbackTimeout time.Duration `koanf:"fallback_timeout"`

	// DefaultFolder receives uploads whose folder is missing or not allow-listed.
	DefaultFolder string `koanf:"default_folder"`
}

// MediaConfig selects and configures the media host.
type MediaConfig struct {
	// Provider is "cloudinary" or "s3".
	Provider   string           `koanf:"provider"`
	Cloudinary CloudinaryConfig `koanf:"cloudinary"`
	S3         S3Config         `koanf:"s3"`
}

// CloudinaryConfig holds Cloudinary upload API credentials.
type CloudinaryConfig struct {
	CloudName string `koanf:"cloud_name"`
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
	BaseURL   string `koanf:"base_url"`
}

// S3Config holds settings for an S3-compatible bucket.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	PublicBaseURL   string `koanf:"public_base_url"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

// DatabaseConfig configures the Badger document store.
type DatabaseConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// CacheConfig configures the public catalog cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, file, and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
