// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lenscape/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Upload folders accepted by the gateway. Anything else is coerced to the default.
var AllowedUploadFolders = []string{"categories", "subcategories", "products", "navbar", "banners"}

// defaultConfig returns the built-in defaults. Secrets are deliberately empty.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second, // primary + fallback upload plus headroom
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
			SiteDomain:      "",
		},
		Security: SecurityConfig{
			AdminEmail:        "",
			AdminPassword:     "",
			JWTSecret:         "",
			CookieSecure:      true,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     10,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Upload: UploadConfig{
			MaxConcurrent:   3,
			MaxPayloadBytes: 50 << 20,
			PrimaryTimeout:  60 * time.Second,
			FallbackTimeout: 30 * time.Second,
			DefaultFolder:   "products",
		},
		Media: MediaConfig{
			Provider: "cloudinary",
			Cloudinary: CloudinaryConfig{
				BaseURL: "https://api.cloudinary.com/v1_1",
			},
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Database: DatabaseConfig{
			Path:       "/data/lenscape",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// ADMIN_EMAIL -> security.admin_email, UPLOAD_MAX_CONCURRENT -> upload.max_concurrent
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"port":             "server.port",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",
	"site_domain":      "server.site_domain",

	// Security
	"admin_email":         "security.admin_email",
	"admin_password":      "security.admin_password",
	"jwt_secret":          "security.jwt_secret",
	"cookie_secure":       "security.cookie_secure",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Upload gateway
	"upload_max_concurrent":   "upload.max_concurrent",
	"upload_max_bytes":        "upload.max_payload_bytes",
	"upload_primary_timeout":  "upload.primary_timeout",
	"upload_fallback_timeout": "upload.fallback_timeout",
	"upload_default_folder":   "upload.default_folder",

	// Media host
	"media_provider":        "media.provider",
	"cloudinary_cloud_name": "media.cloudinary.cloud_name",
	"cloudinary_api_key":    "media.cloudinary.api_key",
	"cloudinary_api_secret": "media.cloudinary.api_secret",
	"cloudinary_base_url":   "media.cloudinary.base_url",
	"s3_bucket":             "media.s3.bucket",
	"s3_region":             "media.s3.region",
	"s3_endpoint":           "media.s3.endpoint",
	"s3_access_key_id":      "media.s3.access_key_id",
	"s3_secret_access_key":  "media.s3.secret_access_key",
	"s3_public_base_url":    "media.s3.public_base_url",
	"s3_use_path_style":     "media.s3.use_path_style",

	// Database
	"badger_path":        "database.path",
	"badger_in_memory":   "database.in_memory",
	"badger_gc_interval": "database.gc_interval",

	// Cache
	"catalog_cache_ttl": "cache.ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
