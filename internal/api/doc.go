// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

/*
Package api provides the HTTP layer for Lenscape: the JSON API, the page
routes, and the middleware stack that fronts both.

Key Components:

  - Router: chi route tree, global middleware, and the admin gate
  - Handler: request handlers for catalog, admin, upload and form endpoints
  - Response formatting: APIResponse envelopes for collections, flat
    {"error": ...} bodies for every failure
  - Rate limiting: per-IP httprate limiters on the public forms

Route Groups:

1. Public catalog (/api/categories, /api/products, /api/industries):
  - Read-only, cached in memory, ETag aware

2. Public forms (/api/contact, /api/newsletter):
  - Validated with go-playground/validator, rate limited per IP

3. Session (/api/admin/login, /api/admin/logout):
  - Issues and clears the admin_token cookie

4. Admin API (/api/admin/*, /api/upload, /api/upload/delete):
  - Requires a valid session; answers 401 otherwise
  - Uploads pass through the admission controller before any body is read

5. Pages (/, /products, /industries/{slug}, /admin-login, /admin/*):
  - Server-rendered; /admin/* goes through the session gate, which redirects
    to /admin-login instead of answering 401

Usage Example:

	handler := api.NewHandler(api.Dependencies{...})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromConfig(cfg)))
	srv := &http.Server{Addr: cfg.Addr(), Handler: router.SetupChi()}

Thread Safety:

Handler is safe for concurrent use. The admission controller and the catalog
cache are the only shared mutable state.
*/
package api
