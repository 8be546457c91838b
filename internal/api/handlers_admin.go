// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/models"
)

// Admin catalog and inbox management. Every route here sits behind
// RequireAPISession and NoStore.

// AdminListCategories returns all categories, uncached.
func (h *Handler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	respondData(w, http.StatusOK, categories, start, false)
}

// AdminGetCategory returns one category by ID.
func (h *Handler) AdminGetCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cat, err := h.store.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	respondData(w, http.StatusOK, cat, start, false)
}

// CreateCategory adds a category or subcategory.
//
// Method: POST
// Path: /api/admin/categories
//
// Responses:
//   - 201: the created category
//   - 400: validation failure or unknown parent
//   - 409: slug already in use
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if verr := validateRequest(&in); verr != nil {
		respondValidationError(w, verr)
		return
	}

	cat, err := h.store.CreateCategory(r.Context(), &in)
	if err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	h.invalidateCatalog(r)
	logging.Ctx(r.Context()).Info().Str("category_id", cat.ID).Str("slug", cat.Slug).Msg("Category created")
	respondData(w, http.StatusCreated, cat, start, false)
}

// UpdateCategory replaces a category's fields.
//
// Method: PUT
// Path: /api/admin/categories/{id}
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if verr := validateRequest(&in); verr != nil {
		respondValidationError(w, verr)
		return
	}

	cat, err := h.store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), &in)
	if err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	h.invalidateCatalog(r)
	respondData(w, http.StatusOK, cat, start, false)
}

// DeleteCategory removes a category. It fails with 409 while products or
// subcategories still reference it.
//
// Method: DELETE
// Path: /api/admin/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		respondStoreError(w, r, "Category", err)
		return
	}
	h.invalidateCatalog(r)
	logging.Ctx(r.Context()).Info().Str("category_id", id).Msg("Category deleted")
	respondJSON(w, http.StatusOK, &models.SuccessResponse{Success: true})
}

// AdminListProducts returns all products, uncached.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	products, err := h.store.ListProducts(r.Context(), models.ProductFilter{})
	if err != nil {
		respondStoreError(w, r, "Product", err)
		return
	}
	respondData(w, http.StatusOK, products, start, false)
}

// AdminGetProduct returns one product by ID.
func (h *Handler) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Product", err)
		return
	}
	respondData(w, http.StatusOK, p, start, false)
}

// CreateProduct adds a product.
//
// Method: POST
// Path: /api/admin/products
//
// Responses:
//   - 201: the created product
//   - 400: validation failure or unknown category
//   - 409: slug already in use
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if verr := validateRequest(&in); verr != nil {
		respondValidationError(w, verr)
		return
	}

	p, err := h.store.CreateProduct(r.Context(), &in)
	if err != nil {
		respondStoreError(w, r, "Product", err)
		return
	}
	h.invalidateCatalog(r)
	logging.Ctx(r.Context()).Info().Str("product_id", p.ID).Str("slug", p.Slug).Msg("Product created")
	respondData(w, http.StatusCreated, p, start, false)
}

// UpdateProduct replaces a product's fields.
//
// Method: PUT
// Path: /api/admin/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if verr := validateRequest(&in); verr != nil {
		respondValidationError(w, verr)
		return
	}

	p, err := h.store.UpdateProduct(r.Context(), chi.URLParam(r, "id"), &in)
	if err != nil {
		respondStoreError(w, r, "Product", err)
		return
	}
	h.invalidateCatalog(r)
	respondData(w, http.StatusOK, p, start, false)
}

// DeleteProduct removes a product. Its images stay on the media host.
//
// Method: DELETE
// Path: /api/admin/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		respondStoreError(w, r, "Product", err)
		return
	}
	h.invalidateCatalog(r)
	logging.Ctx(r.Context()).Info().Str("product_id", id).Msg("Product deleted")
	respondJSON(w, http.StatusOK, &models.SuccessResponse{Success: true})
}

// ListContacts returns contact messages, newest first.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	msgs, err := h.store.ListContacts(r.Context())
	if err != nil {
		respondStoreError(w, r, "Contact message", err)
		return
	}
	respondData(w, http.StatusOK, msgs, start, false)
}

// MarkContactRead flags a contact message as read.
//
// Method: PATCH
// Path: /api/admin/contacts/{id}/read
func (h *Handler) MarkContactRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	msg, err := h.store.MarkContactRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Contact message", err)
		return
	}
	respondData(w, http.StatusOK, msg, start, false)
}

// DeleteContact removes a contact message.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "Contact message", err)
		return
	}
	respondJSON(w, http.StatusOK, &models.SuccessResponse{Success: true})
}

// ListSubscribers returns newsletter subscribers.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	subs, err := h.store.ListSubscribers(r.Context())
	if err != nil {
		respondStoreError(w, r, "Subscriber", err)
		return
	}
	respondData(w, http.StatusOK, subs, start, false)
}

// Unsubscribe removes a subscriber.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Unsubscribe(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "Subscriber", err)
		return
	}
	respondJSON(w, http.StatusOK, &models.SuccessResponse{Success: true})
}

// Stats returns dashboard counters.
//
// Method: GET
// Path: /api/admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		respondStoreError(w, r, "Stats", err)
		return
	}
	respondData(w, http.StatusOK, stats, start, false)
}
