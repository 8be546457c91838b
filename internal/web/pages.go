// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package web renders the server-side pages: the public catalog pages, the
// admin login form, and the admin dashboard.
//
// Templates are embedded and parsed once at startup. Each page is parsed
// together with layout.html into its own template set.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lenscape/internal/logging"
	"github.com/tomtom215/lenscape/internal/models"
	"github.com/tomtom215/lenscape/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Catalog is the data the pages read.
type Catalog interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

var pageNames = []string{"home", "products", "product", "industry", "login", "dashboard", "notfound"}

// Pages serves the HTML pages.
type Pages struct {
	catalog   Catalog
	templates map[string]*template.Template
	siteName  string
}

// New parses the embedded templates.
func New(catalog Catalog, siteName string) (*Pages, error) {
	funcs := template.FuncMap{
		"firstImage": func(images []string) string {
			if len(images) == 0 {
				return ""
			}
			return images[0]
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}

	p := &Pages{catalog: catalog, templates: make(map[string]*template.Template), siteName: siteName}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

type pageData struct {
	Site  string
	Title string
	Data  interface{}
}

// Home lists featured products and top-level categories.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	featured := true
	products, err := p.catalog.ListProducts(ctx, models.ProductFilter{Featured: &featured})
	if err != nil {
		p.serverError(w, r, err)
		return
	}
	categories, err := p.catalog.ListCategories(ctx)
	if err != nil {
		p.serverError(w, r, err)
		return
	}

	p.render(w, r, http.StatusOK, "home", "Security cameras for every site", struct {
		Featured   []*models.Product
		Categories []*models.Category
		Industries []models.Industry
	}{products, topLevel(categories), Industries()})
}

// Products lists products, optionally narrowed by ?category=<slug>.
func (p *Pages) Products(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := models.ProductFilter{}
	var current *models.Category

	if slug := r.URL.Query().Get("category"); slug != "" {
		cat, err := p.catalog.GetCategoryBySlug(ctx, slug)
		if errors.Is(err, store.ErrNotFound) {
			p.NotFound(w, r)
			return
		}
		if err != nil {
			p.serverError(w, r, err)
			return
		}
		filter.CategoryID = cat.ID
		current = cat
	}

	products, err := p.catalog.ListProducts(ctx, filter)
	if err != nil {
		p.serverError(w, r, err)
		return
	}
	categories, err := p.catalog.ListCategories(ctx)
	if err != nil {
		p.serverError(w, r, err)
		return
	}

	title := "Products"
	if current != nil {
		title = current.Name
	}
	p.render(w, r, http.StatusOK, "products", title, struct {
		Products   []*models.Product
		Categories []*models.Category
		Current    *models.Category
	}{products, categories, current})
}

// Product shows one product by slug.
func (p *Pages) Product(w http.ResponseWriter, r *http.Request) {
	product, err := p.catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, store.ErrNotFound) {
		p.NotFound(w, r)
		return
	}
	if err != nil {
		p.serverError(w, r, err)
		return
	}
	p.render(w, r, http.StatusOK, "product", product.Name, product)
}

// Industry shows a static industry page.
func (p *Pages) Industry(w http.ResponseWriter, r *http.Request) {
	ind, ok := FindIndustry(chi.URLParam(r, "slug"))
	if !ok {
		p.NotFound(w, r)
		return
	}
	p.render(w, r, http.StatusOK, "industry", ind.Name, ind)
}

// Login renders the admin login form. It posts to /api/admin/login.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "login", "Admin login", nil)
}

// Dashboard renders the admin overview. Only reachable through the gate.
func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := p.catalog.Stats(r.Context())
	if err != nil {
		p.serverError(w, r, err)
		return
	}
	p.render(w, r, http.StatusOK, "dashboard", "Dashboard", stats)
}

// NotFound renders the 404 page.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusNotFound, "notfound", "Page not found", nil)
}

func (p *Pages) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Page render failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// render executes into a buffer first so a template error never produces a
// half-written page.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	t, ok := p.templates[name]
	if !ok {
		p.serverError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pageData{Site: p.siteName, Title: title, Data: data}); err != nil {
		p.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Client went away during page write")
	}
}

func topLevel(categories []*models.Category) []*models.Category {
	out := make([]*models.Category, 0, len(categories))
	for _, c := range categories {
		if !c.IsSubcategory() {
			out = append(out, c)
		}
	}
	return out
}
