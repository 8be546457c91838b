// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package models defines the documents persisted by the store and the request
// and response shapes exchanged over the HTTP API.
package models

import "time"

// Category groups products. A category with a ParentID is a subcategory; nesting
// is one level deep.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsSubcategory reports whether c nests under another category.
func (c *Category) IsSubcategory() bool {
	return c.ParentID != ""
}

// CategoryInput is the admin create/update body for a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug" validate:"omitempty,slug,max=120"`
	Description string `json:"description" validate:"max=4000"`
	ImageURL    string `json:"image_url" validate:"omitempty,http_url,max=2048"`
	ParentID    string `json:"parent_id" validate:"omitempty,uuid4"`
	Order       int    `json:"order" validate:"gte=0,lte=10000"`
}

// Product is a camera, recorder or accessory listed in the catalog.
type Product struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	SKU           string            `json:"sku,omitempty"`
	CategoryID    string            `json:"category_id"`
	SubcategoryID string            `json:"subcategory_id,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Description   string            `json:"description,omitempty"`
	Features      []string          `json:"features,omitempty"`
	Specs         map[string]string `json:"specs,omitempty"`
	Images        []string          `json:"images,omitempty"`
	Industries    []string          `json:"industries,omitempty"`
	Featured      bool              `json:"featured"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ProductInput is the admin create/update body for a product.
type ProductInput struct {
	Name          string            `json:"name" validate:"required,max=200"`
	Slug          string            `json:"slug" validate:"omitempty,slug,max=200"`
	SKU           string            `json:"sku" validate:"max=64"`
	CategoryID    string            `json:"category_id" validate:"required,uuid4"`
	SubcategoryID string            `json:"subcategory_id" validate:"omitempty,uuid4"`
	Summary       string            `json:"summary" validate:"max=500"`
	Description   string            `json:"description" validate:"max=20000"`
	Features      []string          `json:"features" validate:"max=50,dive,max=300"`
	Specs         map[string]string `json:"specs" validate:"max=100"`
	Images        []string          `json:"images" validate:"max=20,dive,http_url"`
	Industries    []string          `json:"industries" validate:"max=10,dive,slug"`
	Featured      bool              `json:"featured"`
}

// ProductFilter narrows ListProducts. Zero values match everything.
type ProductFilter struct {
	CategoryID string
	Featured   *bool
	Industry   string
}

// Matches reports whether p passes the filter.
func (f ProductFilter) Matches(p *Product) bool {
	if f.CategoryID != "" && p.CategoryID != f.CategoryID && p.SubcategoryID != f.CategoryID {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.Industry != "" {
		for _, ind := range p.Industries {
			if ind == f.Industry {
				return true
			}
		}
		return false
	}
	return true
}

// Industry is static marketing content describing a vertical the distributor serves.
type Industry struct {
	Slug       string   `json:"slug"`
	Name       string   `json:"name"`
	Headline   string   `json:"headline"`
	Summary    string   `json:"summary"`
	Challenges []string `json:"challenges"`
	Solutions  []string `json:"solutions"`
	Categories []string `json:"recommended_categories"`
}

// CategoryDetail is the public view of one category.
type CategoryDetail struct {
	Category      *Category   `json:"category"`
	Subcategories []*Category `json:"subcategories"`
	Products      []*Product  `json:"products"`
}
