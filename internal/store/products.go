// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/lenscape/internal/models"
)

const collProducts = "products"

var (
	products       = collection[models.Product]{name: collProducts}
	productSlugIdx = uniqueIndex{collection: collProducts, field: "slug"}
)

// CreateProduct stores a new product. The category must exist; a
// subcategory, when given, must be a child of that category.
func (s *Store) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	now := s.now().UTC()
	p := &models.Product{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	applyProductInput(p, in)

	err := s.update(ctx, "create", collProducts, func(txn *badger.Txn) error {
		if err := checkProductCategories(txn, p.CategoryID, p.SubcategoryID); err != nil {
			return err
		}
		slug, err := resolveSlug(txn, productSlugIdx, in.Slug, p.Name, p.ID)
		if err != nil {
			return err
		}
		p.Slug = slug
		return products.put(txn, p.ID, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct replaces the editable fields of a product. An empty slug keeps
// the current one.
func (s *Store) UpdateProduct(ctx context.Context, id string, in *models.ProductInput) (*models.Product, error) {
	var out *models.Product

	err := s.update(ctx, "update", collProducts, func(txn *badger.Txn) error {
		p, err := products.get(txn, id)
		if err != nil {
			return err
		}
		if err := checkProductCategories(txn, in.CategoryID, in.SubcategoryID); err != nil {
			return err
		}

		if in.Slug != "" && in.Slug != p.Slug {
			if err := productSlugIdx.claim(txn, in.Slug, id); err != nil {
				return err
			}
			if err := productSlugIdx.release(txn, p.Slug); err != nil {
				return err
			}
			p.Slug = in.Slug
		}

		applyProductInput(p, in)
		p.UpdatedAt = s.now().UTC()
		out = p
		return products.put(txn, id, p)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct returns a product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p *models.Product
	err := s.view(ctx, "get", collProducts, func(txn *badger.Txn) error {
		var err error
		p, err = products.get(txn, id)
		return err
	})
	return p, err
}

// GetProductBySlug returns a product by its public slug.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p *models.Product
	err := s.view(ctx, "get_by_slug", collProducts, func(txn *badger.Txn) error {
		id, err := productSlugIdx.lookup(txn, slug)
		if err != nil {
			return err
		}
		p, err = products.get(txn, id)
		return err
	})
	return p, err
}

// ListProducts returns products matching filter, featured first, then by name.
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	out := []*models.Product{}
	err := s.view(ctx, "list", collProducts, func(txn *badger.Txn) error {
		return products.each(txn, func(p *models.Product) bool {
			if filter.Matches(p) {
				out = append(out, p)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// DeleteProduct removes a product and its slug index entry.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.update(ctx, "delete", collProducts, func(txn *badger.Txn) error {
		p, err := products.get(txn, id)
		if err != nil {
			return err
		}
		if err := productSlugIdx.release(txn, p.Slug); err != nil {
			return err
		}
		return products.delete(txn, id)
	})
}

func applyProductInput(p *models.Product, in *models.ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.SKU = strings.TrimSpace(in.SKU)
	p.CategoryID = in.CategoryID
	p.SubcategoryID = in.SubcategoryID
	p.Summary = in.Summary
	p.Description = in.Description
	p.Features = in.Features
	p.Specs = in.Specs
	p.Images = in.Images
	p.Industries = in.Industries
	p.Featured = in.Featured
}

func checkProductCategories(txn *badger.Txn, categoryID, subcategoryID string) error {
	cat, err := categories.get(txn, categoryID)
	if err != nil {
		return fmt.Errorf("category %s: %w", categoryID, ErrInvalidReference)
	}
	if cat.IsSubcategory() {
		return fmt.Errorf("category %s is a subcategory; use subcategory_id: %w", categoryID, ErrInvalidReference)
	}
	if subcategoryID == "" {
		return nil
	}
	sub, err := categories.get(txn, subcategoryID)
	if err != nil {
		return fmt.Errorf("subcategory %s: %w", subcategoryID, ErrInvalidReference)
	}
	if sub.ParentID != categoryID {
		return fmt.Errorf("subcategory %s does not belong to category %s: %w", subcategoryID, categoryID, ErrInvalidReference)
	}
	return nil
}
