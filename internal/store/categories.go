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

const collCategories = "categories"

var (
	categories      = collection[models.Category]{name: collCategories}
	categorySlugIdx = uniqueIndex{collection: collCategories, field: "slug"}
)

// CreateCategory stores a new category or subcategory.
func (s *Store) CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.Category, error) {
	now := s.now().UTC()
	cat := &models.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ParentID:    in.ParentID,
		Order:       in.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.update(ctx, "create", collCategories, func(txn *badger.Txn) error {
		if err := checkParent(txn, cat.ID, cat.ParentID); err != nil {
			return err
		}
		slug, err := resolveSlug(txn, categorySlugIdx, in.Slug, cat.Name, cat.ID)
		if err != nil {
			return err
		}
		cat.Slug = slug
		return categories.put(txn, cat.ID, cat)
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// UpdateCategory replaces the editable fields of a category. An empty slug in
// the input keeps the current slug so public URLs stay stable.
func (s *Store) UpdateCategory(ctx context.Context, id string, in *models.CategoryInput) (*models.Category, error) {
	var out *models.Category

	err := s.update(ctx, "update", collCategories, func(txn *badger.Txn) error {
		cat, err := categories.get(txn, id)
		if err != nil {
			return err
		}

		if in.ParentID != cat.ParentID {
			if err := checkParent(txn, id, in.ParentID); err != nil {
				return err
			}
			if in.ParentID != "" {
				hasChildren, err := hasSubcategories(txn, id)
				if err != nil {
					return err
				}
				if hasChildren {
					return fmt.Errorf("category %s has subcategories and cannot become one: %w", id, ErrInvalidReference)
				}
			}
		}

		if in.Slug != "" && in.Slug != cat.Slug {
			if err := categorySlugIdx.claim(txn, in.Slug, id); err != nil {
				return err
			}
			if err := categorySlugIdx.release(txn, cat.Slug); err != nil {
				return err
			}
			cat.Slug = in.Slug
		}

		cat.Name = strings.TrimSpace(in.Name)
		cat.Description = in.Description
		cat.ImageURL = in.ImageURL
		cat.ParentID = in.ParentID
		cat.Order = in.Order
		cat.UpdatedAt = s.now().UTC()

		out = cat
		return categories.put(txn, id, cat)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCategory returns a category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var cat *models.Category
	err := s.view(ctx, "get", collCategories, func(txn *badger.Txn) error {
		var err error
		cat, err = categories.get(txn, id)
		return err
	})
	return cat, err
}

// GetCategoryBySlug returns a category by its public slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat *models.Category
	err := s.view(ctx, "get_by_slug", collCategories, func(txn *badger.Txn) error {
		id, err := categorySlugIdx.lookup(txn, slug)
		if err != nil {
			return err
		}
		cat, err = categories.get(txn, id)
		return err
	})
	return cat, err
}

// ListCategories returns every category ordered by Order, then Name.
func (s *Store) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var cats []*models.Category
	err := s.view(ctx, "list", collCategories, func(txn *badger.Txn) error {
		var err error
		cats, err = categories.list(txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
	if cats == nil {
		cats = []*models.Category{}
	}
	return cats, nil
}

// DeleteCategory removes a category. It fails with ErrConflict while any
// product or subcategory still references it.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.update(ctx, "delete", collCategories, func(txn *badger.Txn) error {
		cat, err := categories.get(txn, id)
		if err != nil {
			return err
		}

		hasChildren, err := hasSubcategories(txn, id)
		if err != nil {
			return err
		}
		if hasChildren {
			return fmt.Errorf("category %s has subcategories: %w", id, ErrConflict)
		}

		referenced := false
		if err := products.each(txn, func(p *models.Product) bool {
			referenced = p.CategoryID == id || p.SubcategoryID == id
			return !referenced
		}); err != nil {
			return err
		}
		if referenced {
			return fmt.Errorf("category %s is referenced by products: %w", id, ErrConflict)
		}

		if err := categorySlugIdx.release(txn, cat.Slug); err != nil {
			return err
		}
		return categories.delete(txn, id)
	})
}

// checkParent verifies parentID names an existing top-level category other than id.
func checkParent(txn *badger.Txn, id, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == id {
		return fmt.Errorf("category cannot be its own parent: %w", ErrInvalidReference)
	}
	parent, err := categories.get(txn, parentID)
	if err != nil {
		return fmt.Errorf("parent category %s: %w", parentID, ErrInvalidReference)
	}
	if parent.IsSubcategory() {
		return fmt.Errorf("parent category %s is itself a subcategory: %w", parentID, ErrInvalidReference)
	}
	return nil
}

func hasSubcategories(txn *badger.Txn, id string) (bool, error) {
	found := false
	err := categories.each(txn, func(c *models.Category) bool {
		found = c.ParentID == id
		return !found
	})
	return found, err
}
