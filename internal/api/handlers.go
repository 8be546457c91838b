// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/lenscape/internal/auth"
	"github.com/tomtom215/lenscape/internal/cache"
	"github.com/tomtom215/lenscape/internal/config"
	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/media"
	"github.com/tomtom215/lenscape/internal/models"
	"github.com/tomtom215/lenscape/internal/upload"
)

// Store is the persistence the handlers need. *store.Store implements it.
type Store interface {
	CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, in *models.CategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, in *models.ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateContact(ctx context.Context, in *models.ContactInput) (*models.ContactMessage, error)
	ListContacts(ctx context.Context) ([]*models.ContactMessage, error)
	MarkContactRead(ctx context.Context, id string) (*models.ContactMessage, error)
	DeleteContact(ctx context.Context, id string) error

	Subscribe(ctx context.Context, in *models.SubscribeInput) (*models.Subscriber, error)
	ListSubscribers(ctx context.Context) ([]*models.Subscriber, error)
	Unsubscribe(ctx context.Context, id string) error

	Stats(ctx context.Context) (*models.DashboardStats, error)
	Ping(ctx context.Context) error
}

// Pages renders the HTML routes. *web.Pages implements it.
type Pages interface {
	Home(w http.ResponseWriter, r *http.Request)
	Products(w http.ResponseWriter, r *http.Request)
	Product(w http.ResponseWriter, r *http.Request)
	Industry(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Dashboard(w http.ResponseWriter, r *http.Request)
	NotFound(w http.ResponseWriter, r *http.Request)
}

// MediaHost is the breaker-wrapped image host.
type MediaHost interface {
	media.Host
	State() string
}

// Dependencies are the collaborators NewHandler wires together. Media and
// Pages may be nil; uploads then answer 503 and page routes are not mounted.
type Dependencies struct {
	Config   *config.Config
	Store    Store
	Sessions *auth.SessionManager
	Media    MediaHost
	Cache    *cache.Cache
	Pages    Pages
	Version  string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: shared response helpers
//   - handlers_auth.go: login and logout
//   - handlers_upload.go: image upload and delete
//   - handlers_catalog.go: public catalog reads
//   - handlers_admin.go: catalog writes and inbox management
//   - handlers_contact.go, handlers_newsletter.go: public forms
//   - handlers_health.go: health endpoint
type Handler struct {
	config    *config.Config
	store     Store
	sessions  *auth.SessionManager
	media     MediaHost
	cache     *cache.Cache
	pages     Pages
	version   string
	startTime time.Time

	admission *upload.Admission
	validator *upload.Validator
	uploader  *upload.Uploader
}

// NewHandler creates a new API handler.
//
// The admission ceiling, payload limit and upload timeouts come from the
// upload config section. A nil cache disables catalog caching.
func NewHandler(deps Dependencies) *Handler {
	cfg := deps.Config
	h := &Handler{
		config:    cfg,
		store:     deps.Store,
		sessions:  deps.Sessions,
		media:     deps.Media,
		cache:     deps.Cache,
		pages:     deps.Pages,
		version:   deps.Version,
		startTime: time.Now(),
		admission: upload.NewAdmission(cfg.Upload.MaxConcurrent),
		validator: upload.NewValidator(cfg.Upload.MaxPayloadBytes, cfg.Upload.DefaultFolder),
	}
	if deps.Media != nil {
		h.uploader = upload.NewUploader(deps.Media, cfg.Upload.PrimaryTimeout, cfg.Upload.FallbackTimeout)
	}
	return h
}

// ClearCache invalidates all cached catalog data.
func (h *Handler) ClearCache() {
	if h.cache != nil {
		h.cache.Clear()
		logging.Info().Msg("Catalog cache cleared")
	}
}

// invalidateCatalog drops cached catalog reads after an admin write.
func (h *Handler) invalidateCatalog(r *http.Request) {
	if h.cache == nil {
		return
	}
	if n := h.cache.DeletePrefix(catalogCachePrefix); n > 0 {
		logging.Ctx(r.Context()).Debug().Int("entries", n).Msg("Catalog cache invalidated")
	}
}
