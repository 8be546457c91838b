// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lenscape/internal/cache"
	"github.com/tomtom215/lenscape/internal/models"
	"github.com/tomtom215/lenscape/internal/store"
	"github.com/tomtom215/lenscape/internal/web"
)

// catalogCachePrefix namespaces every cached public catalog read.
const catalogCachePrefix = "catalog/"

// cachedRead returns the cached value for key, or calls load and caches its
// result. The boolean reports a cache hit. A result is not cached when the
// catalog was invalidated while load ran.
func (h *Handler) cachedRead(key string, load func() (interface{}, error)) (interface{}, bool, error) {
	var gen uint64
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			return v, true, nil
		}
		gen = h.cache.Generation()
	}
	v, err := load()
	if err != nil {
		return nil, false, err
	}
	if h.cache != nil {
		h.cache.SetIfGeneration(key, v, gen)
	}
	return v, false, nil
}

// ListCategories returns every category ordered for display.
//
// Method: GET
// Path: /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data, hit, err := h.cachedRead(catalogCachePrefix+"categories", func() (interface{}, error) {
		return h.store.ListCategories(r.Context())
	})
	if err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	respondCacheable(w, r, data, start, hit)
}

// GetCategory returns a category with its subcategories and products.
//
// Method: GET
// Path: /api/categories/{slug}
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	slug := chi.URLParam(r, "slug")
	key := cache.GenerateKey(catalogCachePrefix+"category", slug)

	data, hit, err := h.cachedRead(key, func() (interface{}, error) {
		ctx := r.Context()
		cat, err := h.store.GetCategoryBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		all, err := h.store.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		products, err := h.store.ListProducts(ctx, models.ProductFilter{CategoryID: cat.ID})
		if err != nil {
			return nil, err
		}
		subs := make([]*models.Category, 0)
		for _, c := range all {
			if c.ParentID == cat.ID {
				subs = append(subs, c)
			}
		}
		if products == nil {
			products = []*models.Product{}
		}
		return &models.CategoryDetail{Category: cat, Subcategories: subs, Products: products}, nil
	})
	if err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	respondCacheable(w, r, data, start, hit)
}

// productQuery is the cache key for a product listing.
type productQuery struct {
	Category string `json:"category"`
	Featured string `json:"featured"`
	Industry string `json:"industry"`
}

// ListProducts returns products, optionally filtered.
//
// Method: GET
// Path: /api/products
//
// Query Parameters:
//   - category: category or subcategory slug
//   - featured: true or false
//   - industry: industry slug
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	query := productQuery{Category: q.Get("category"), Featured: q.Get("featured"), Industry: q.Get("industry")}

	filter := models.ProductFilter{Industry: query.Industry}
	if query.Featured != "" {
		featured, err := strconv.ParseBool(query.Featured)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "featured must be true or false", nil)
			return
		}
		filter.Featured = &featured
	}

	data, hit, err := h.cachedRead(cache.GenerateKey(catalogCachePrefix+"products", query), func() (interface{}, error) {
		ctx := r.Context()
		if query.Category != "" {
			cat, err := h.store.GetCategoryBySlug(ctx, query.Category)
			if err != nil {
				return nil, err
			}
			filter.CategoryID = cat.ID
		}
		products, err := h.store.ListProducts(ctx, filter)
		if err != nil {
			return nil, err
		}
		if products == nil {
			products = []*models.Product{}
		}
		return products, nil
	})
	if err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	respondCacheable(w, r, data, start, hit)
}

// GetProduct returns one product by slug.
//
// Method: GET
// Path: /api/products/{slug}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	slug := chi.URLParam(r, "slug")
	data, hit, err := h.cachedRead(cache.GenerateKey(catalogCachePrefix+"product", slug), func() (interface{}, error) {
		return h.store.GetProductBySlug(r.Context(), slug)
	})
	if err != nil {
		respondStoreError(w, r, "Product", err)
		return
	}
	respondCacheable(w, r, data, start, hit)
}

// ListIndustries returns the static industry content.
//
// Method: GET
// Path: /api/industries
func (h *Handler) ListIndustries(w http.ResponseWriter, r *http.Request) {
	respondCacheable(w, r, web.Industries(), time.Now(), false)
}

// GetIndustry returns one industry by slug.
//
// Method: GET
// Path: /api/industries/{slug}
func (h *Handler) GetIndustry(w http.ResponseWriter, r *http.Request) {
	ind, ok := web.FindIndustry(chi.URLParam(r, "slug"))
	if !ok {
		respondStoreError(w, r, "Industry", store.ErrNotFound)
		return
	}
	respondCacheable(w, r, ind, time.Now(), false)
}
