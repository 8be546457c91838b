// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/lenscape/internal/middleware"
)

// Router binds a Handler to the chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders(h.config.IsProduction()))
	r.Use(chimiddleware.Compress(5, "application/json", "text/html", "text/css"))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.CORS())

		r.Get("/health", h.Health)

		// ========================
		// Session Endpoints
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Post("/admin/login", h.Login)
			r.Post("/admin/logout", h.Logout)
		})

		// ========================
		// Admin API
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(h.sessions.RequireAPISession)
			r.Use(middleware.NoStore)

			r.Get("/admin/stats", h.Stats)

			r.Get("/admin/categories", h.AdminListCategories)
			r.Post("/admin/categories", h.CreateCategory)
			r.Get("/admin/categories/{id}", h.AdminGetCategory)
			r.Put("/admin/categories/{id}", h.UpdateCategory)
			r.Delete("/admin/categories/{id}", h.DeleteCategory)

			r.Get("/admin/products", h.AdminListProducts)
			r.Post("/admin/products", h.CreateProduct)
			r.Get("/admin/products/{id}", h.AdminGetProduct)
			r.Put("/admin/products/{id}", h.UpdateProduct)
			r.Delete("/admin/products/{id}", h.DeleteProduct)

			r.Get("/admin/contacts", h.ListContacts)
			r.Patch("/admin/contacts/{id}/read", h.MarkContactRead)
			r.Delete("/admin/contacts/{id}", h.DeleteContact)

			r.Get("/admin/newsletter", h.ListSubscribers)
			r.Delete("/admin/newsletter/{id}", h.Unsubscribe)

			r.Post("/upload", h.Upload)
			r.Post("/upload/delete", h.DeleteImage)
		})

		// ========================
		// Public Catalog
		// ========================
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{slug}", h.GetCategory)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{slug}", h.GetProduct)
		r.Get("/industries", h.ListIndustries)
		r.Get("/industries/{slug}", h.GetIndustry)

		// ========================
		// Public Forms
		// ========================
		r.With(router.chiMiddleware.RateLimit("contact")).Post("/contact", h.SubmitContact)
		r.With(router.chiMiddleware.RateLimit("newsletter")).Post("/newsletter", h.Subscribe)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusNotFound, "Not found", nil)
		})
	})

	router.setupPages(r)
	return r
}

// setupPages mounts the server-rendered routes. The admin area always sits
// behind the session gate, even when no page renderer is configured.
func (router *Router) setupPages(r chi.Router) {
	h := router.handler
	notFound := http.NotFound
	if h.pages != nil {
		notFound = h.pages.NotFound

		r.Get("/", h.pages.Home)
		r.Get("/products", h.pages.Products)
		r.Get("/products/{slug}", h.pages.Product)
		r.Get("/industries/{slug}", h.pages.Industry)
		r.With(middleware.NoStore).Get("/admin-login", h.pages.Login)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Gate)
		r.Use(middleware.NoStore)

		r.Get("/admin", notFound)
		if h.pages != nil {
			r.Get("/admin/dashboard", h.pages.Dashboard)
		}
		r.Get("/admin/*", notFound)
	})

	r.NotFound(notFound)
}
