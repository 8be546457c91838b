// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

/*
Package main is the entry point for the Lenscape server.

Lenscape serves the public storefront of a security-camera distributor
(home, product catalog, industry pages, contact and newsletter forms) and a
single-administrator back office for managing the catalog, reading the
inbox, and uploading product imagery to a media host.

# Application Architecture

The server runs under a Suture v4 supervision tree:

	RootSupervisor ("lenscape")
	├── DataSupervisor ("data-layer")
	│   ├── store-gc (Badger value log GC)
	│   └── cache-sweep (catalog cache eviction)
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml, and environment
 2. Logging: zerolog, JSON or console
 3. Store: Badger document store for categories, products, and inbox
 4. Media host: Cloudinary or S3 behind a circuit breaker (optional)
 5. Pages: embedded html/template storefront
 6. HTTP: chi router with session gate and upload admission control

# Configuration

Required in production:
  - ADMIN_EMAIL, ADMIN_PASSWORD: the admin principal
  - JWT_SECRET: 32+ character session signing secret
  - SITE_DOMAIN: cookie domain for the admin session

Media host:
  - MEDIA_PROVIDER: cloudinary (default) or s3
  - CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET
  - S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_PUBLIC_BASE_URL

When the media host cannot be configured the server still starts; upload
endpoints answer 503 and the health check reports the host as unconfigured.

# Example Usage

Development with an in-memory store:

	export ENVIRONMENT=development
	export BADGER_IN_MEMORY=true
	export ADMIN_EMAIL=admin@example.com
	export ADMIN_PASSWORD=change-me-please
	./lenscape

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests for SHUTDOWN_TIMEOUT before the store closes.
*/
package main
