// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lenscape/internal/auth"
	"github.com/tomtom215/lenscape/internal/cache"
	"github.com/tomtom215/lenscape/internal/config"
	"github.com/tomtom215/lenscape/internal/media"
	"github.com/tomtom215/lenscape/internal/models"
	"github.com/tomtom215/lenscape/internal/store"
	"github.com/tomtom215/lenscape/internal/web"
)

const (
	testEmail    = "admin@lenscape.test"
	testPassword = "correct horse battery staple"
	testSecret   = "0123456789abcdef0123456789abcdef"
	testImage    = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="
)

// stubHost is a scriptable media host.
type stubHost struct {
	mu      sync.Mutex
	calls   int
	deletes []string
	err     error
	started chan struct{}
	block   chan struct{}
	state   string
}

func (s *stubHost) Name() string { return "stub" }

func (s *stubHost) State() string {
	if s.state == "" {
		return "closed"
	}
	return s.state
}

func (s *stubHost) Upload(ctx context.Context, asset media.Asset, _ media.Options) (*media.Result, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &media.Result{URL: "https://cdn.lenscape.test/" + asset.Folder + "/img.png", PublicID: asset.Folder + "/img"}, nil
}

func (s *stubHost) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, url)
	return s.err
}

type testEnv struct {
	handler *Handler
	router  http.Handler
	store   *store.Store
	host    *stubHost
	cookie  *http.Cookie
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		Security: config.SecurityConfig{
			AdminEmail:      testEmail,
			AdminPassword:   testPassword,
			JWTSecret:       testSecret,
			CookieSecure:    true,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Upload: config.UploadConfig{
			MaxConcurrent:   3,
			MaxPayloadBytes: 1 << 20,
			PrimaryTimeout:  2 * time.Second,
			FallbackTimeout: time.Second,
			DefaultFolder:   "products",
		},
	}
}

func newTestEnv(t *testing.T, cfg *config.Config, host *stubHost) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	st, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	pages, err := web.New(st, "Lenscape")
	if err != nil {
		t.Fatalf("web.New: %v", err)
	}

	sessions := auth.NewSessionManager(auth.SessionConfigFromConfig(cfg))
	deps := Dependencies{
		Config:   cfg,
		Store:    st,
		Sessions: sessions,
		Cache:    cache.New(time.Minute),
		Pages:    pages,
		Version:  "test",
	}
	if host != nil {
		deps.Media = host
	}
	h := NewHandler(deps)

	cookie, err := sessions.IssueSession(testEmail, testPassword)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	mw := NewChiMiddleware(ChiMiddlewareConfigFromConfig(cfg))
	return &testEnv{
		handler: h,
		router:  NewRouter(h, mw).SetupChi(),
		store:   st,
		host:    host,
		cookie:  cookie,
	}
}

// do sends a request; authed attaches the session cookie.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCookie bool
		wantError  string
	}{
		{"valid", models.LoginRequest{Email: testEmail, Password: testPassword}, http.StatusOK, true, ""},
		{"wrong password", models.LoginRequest{Email: testEmail, Password: "nope"}, http.StatusUnauthorized, false, "Invalid credentials"},
		{"wrong email", models.LoginRequest{Email: "x@y.z", Password: testPassword}, http.StatusUnauthorized, false, "Invalid credentials"},
		{"empty", models.LoginRequest{}, http.StatusUnauthorized, false, "Invalid credentials"},
		{"not json", "{email:", http.StatusBadRequest, false, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodPost, "/api/admin/login", tt.body, false)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			gotCookie := false
			for _, c := range rec.Result().Cookies() {
				if c.Name == auth.CookieName && c.Value != "" {
					gotCookie = true
				}
			}
			if gotCookie != tt.wantCookie {
				t.Errorf("session cookie set = %v, want %v", gotCookie, tt.wantCookie)
			}

			if tt.wantError != "" {
				var resp models.ErrorResponse
				decodeBody(t, rec, &resp)
				if resp.Error != tt.wantError {
					t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
				}
				return
			}
			var resp models.SessionResponse
			decodeBody(t, rec, &resp)
			if !resp.Success || resp.RedirectTo != auth.AdminDashboard {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/admin/logout", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookies = %+v, want one cleared admin_token", cookies)
	}
	var resp models.SessionResponse
	decodeBody(t, rec, &resp)
	if resp.RedirectTo != auth.LoginPath {
		t.Errorf("redirectTo = %q, want %q", resp.RedirectTo, auth.LoginPath)
	}
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, &stubHost{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/categories"},
		{http.MethodPost, "/api/admin/products"},
		{http.MethodGet, "/api/admin/contacts"},
		{http.MethodGet, "/api/admin/newsletter"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/upload"},
		{http.MethodPost, "/api/upload/delete"},
	}
	for _, rt := range routes {
		rec := env.do(t, rt.method, rt.path, "{}", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", rt.method, rt.path, rec.Code)
		}
	}
	if env.host.calls != 0 {
		t.Errorf("media host called %d times without a session", env.host.calls)
	}
}

func TestAdminPages_Gate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name         string
		path         string
		authed       bool
		wantStatus   int
		wantLocation string
	}{
		{"root anonymous", "/admin", false, http.StatusTemporaryRedirect, "/admin/dashboard"},
		{"root authed", "/admin", true, http.StatusTemporaryRedirect, "/admin/dashboard"},
		{"root slash anonymous", "/admin/", false, http.StatusTemporaryRedirect, "/admin-login"},
		{"dashboard anonymous", "/admin/dashboard", false, http.StatusTemporaryRedirect, "/admin-login"},
		{"dashboard authed", "/admin/dashboard", true, http.StatusOK, ""},
		{"nested anonymous", "/admin/products/edit", false, http.StatusTemporaryRedirect, "/admin-login"},
		{"login page", "/admin-login", false, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodGet, tt.path, nil, tt.authed)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestAdminPages_InvalidCookieCleared(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not.a.jwt"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != auth.LoginPath {
		t.Fatalf("status = %d, Location = %q", rec.Code, rec.Header().Get("Location"))
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("invalid cookie was not cleared")
	}
}

func createCategory(t *testing.T, env *testEnv, in models.CategoryInput) *models.Category {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/admin/categories", in, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data models.Category `json:"data"`
	}
	decodeBody(t, rec, &resp)
	return &resp.Data
}

func createProduct(t *testing.T, env *testEnv, in models.ProductInput) *models.Product {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/admin/products", in, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data models.Product `json:"data"`
	}
	decodeBody(t, rec, &resp)
	return &resp.Data
}

type listResponse struct {
	Status   string            `json:"status"`
	Data     []json.RawMessage `json:"data"`
	Metadata models.Metadata   `json:"metadata"`
}

func TestCachedRead_WriteDuringLoadIsNotCached(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)
	dome := createCategory(t, env, models.CategoryInput{Name: "Dome Cameras"})
	key := catalogCachePrefix + "categories"

	// The load reads the store, then an admin write commits and invalidates
	// before the reader gets to cache its now stale result.
	_, hit, err := env.handler.cachedRead(key, func() (interface{}, error) {
		stale, err := env.store.ListCategories(context.Background())
		if err != nil {
			return nil, err
		}
		createCategory(t, env, models.CategoryInput{Name: "Bullet Cameras", ParentID: dome.ID})
		return stale, nil
	})
	if err != nil || hit {
		t.Fatalf("cachedRead() hit=%v err=%v", hit, err)
	}
	if _, ok := env.handler.cache.Get(key); ok {
		t.Fatal("value loaded before the invalidation was cached")
	}

	rec := env.do(t, http.MethodGet, "/api/categories", nil, false)
	var list listResponse
	decodeBody(t, rec, &list)
	if len(list.Data) != 2 || list.Metadata.Cached {
		t.Errorf("categories = %d, cached=%v; want 2 fresh", len(list.Data), list.Metadata.Cached)
	}
}

func TestCatalog_CRUDAndCacheInvalidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	dome := createCategory(t, env, models.CategoryInput{Name: "Dome Cameras"})
	if dome.Slug != "dome-cameras" {
		t.Errorf("slug = %q, want dome-cameras", dome.Slug)
	}
	indoor := createCategory(t, env, models.CategoryInput{Name: "Indoor Domes", ParentID: dome.ID})
	createProduct(t, env, models.ProductInput{Name: "D-400 Dome", CategoryID: dome.ID, SubcategoryID: indoor.ID, Featured: true})

	rec := env.do(t, http.MethodGet, "/api/products", nil, false)
	var list listResponse
	decodeBody(t, rec, &list)
	if list.Status != "success" || len(list.Data) != 1 || list.Metadata.Cached {
		t.Fatalf("first list = %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/products", nil, false)
	decodeBody(t, rec, &list)
	if !list.Metadata.Cached {
		t.Error("second list not served from cache")
	}

	createProduct(t, env, models.ProductInput{Name: "B-800 Bullet", CategoryID: dome.ID})
	rec = env.do(t, http.MethodGet, "/api/products", nil, false)
	decodeBody(t, rec, &list)
	if len(list.Data) != 2 || list.Metadata.Cached {
		t.Errorf("after write: %d products, cached=%v; want 2, false", len(list.Data), list.Metadata.Cached)
	}

	rec = env.do(t, http.MethodGet, "/api/products?featured=true", nil, false)
	decodeBody(t, rec, &list)
	if len(list.Data) != 1 {
		t.Errorf("featured filter returned %d products, want 1", len(list.Data))
	}

	rec = env.do(t, http.MethodGet, "/api/categories/dome-cameras", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("category detail status = %d", rec.Code)
	}
	var detail struct {
		Data models.CategoryDetail `json:"data"`
	}
	decodeBody(t, rec, &detail)
	if len(detail.Data.Subcategories) != 1 || len(detail.Data.Products) != 2 {
		t.Errorf("detail = %d subcategories, %d products; want 1, 2", len(detail.Data.Subcategories), len(detail.Data.Products))
	}

	rec = env.do(t, http.MethodDelete, "/api/admin/categories/"+dome.ID, nil, true)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete referenced category = %d, want 409", rec.Code)
	}

	if rec = env.do(t, http.MethodGet, "/api/products/d-400-dome", nil, false); rec.Code != http.StatusOK {
		t.Errorf("product by slug = %d, want 200", rec.Code)
	}
	if rec = env.do(t, http.MethodGet, "/api/products/missing", nil, false); rec.Code != http.StatusNotFound {
		t.Errorf("missing product = %d, want 404", rec.Code)
	}
	if rec = env.do(t, http.MethodGet, "/api/products?category=missing", nil, false); rec.Code != http.StatusNotFound {
		t.Errorf("unknown category filter = %d, want 404", rec.Code)
	}
	if rec = env.do(t, http.MethodGet, "/api/products?featured=maybe", nil, false); rec.Code != http.StatusBadRequest {
		t.Errorf("bad featured = %d, want 400", rec.Code)
	}
}

func TestCatalog_AdminErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	createCategory(t, env, models.CategoryInput{Name: "PTZ Cameras"})

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"missing name", http.MethodPost, "/api/admin/categories", models.CategoryInput{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"duplicate slug", http.MethodPost, "/api/admin/categories", models.CategoryInput{Name: "PTZ Cameras"}, http.StatusConflict, "CONFLICT"},
		{"unknown parent", http.MethodPost, "/api/admin/categories", models.CategoryInput{Name: "Child", ParentID: "6f1c2b1e-1d0a-4c9e-9a55-2b8f3e7c1a00"}, http.StatusBadRequest, "INVALID_REFERENCE"},
		{"product without category", http.MethodPost, "/api/admin/products", models.ProductInput{Name: "Orphan"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"product unknown category", http.MethodPost, "/api/admin/products", models.ProductInput{Name: "Orphan", CategoryID: "6f1c2b1e-1d0a-4c9e-9a55-2b8f3e7c1a00"}, http.StatusBadRequest, "INVALID_REFERENCE"},
		{"update missing", http.MethodPut, "/api/admin/categories/nope", models.CategoryInput{Name: "X"}, http.StatusNotFound, ""},
		{"bad json", http.MethodPost, "/api/admin/products", "[", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body, true)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp models.ErrorResponse
			decodeBody(t, rec, &resp)
			if resp.Error == "" {
				t.Error("error message is empty")
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestCatalog_ETag(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)
	createCategory(t, env, models.CategoryInput{Name: "Bullet Cameras"})

	first := env.do(t, http.MethodGet, "/api/categories", nil, false)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag on catalog response")
	}

	if !strings.HasPrefix(etag, `W/"`) {
		t.Errorf("ETag = %q, want a weak validator", etag)
	}
	strong := strings.TrimPrefix(etag, "W/")

	tests := []struct {
		name        string
		ifNoneMatch string
		wantStatus  int
	}{
		{"same tag", etag, http.StatusNotModified},
		{"strong form of tag", strong, http.StatusNotModified},
		{"tag in list", `"other", ` + etag, http.StatusNotModified},
		{"wildcard", "*", http.StatusNotModified},
		{"different tag", `W/"deadbeef"`, http.StatusOK},
		{"no header", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
			if tt.ifNoneMatch != "" {
				req.Header.Set("If-None-Match", tt.ifNoneMatch)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("conditional GET = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestETagMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		etag   string
		want   bool
	}{
		{`W/"abc"`, `W/"abc"`, true},
		{`"abc"`, `W/"abc"`, true},
		{`"x", W/"abc"`, `W/"abc"`, true},
		{`"x",W/"abc"`, `W/"abc"`, true},
		{`*`, `W/"abc"`, true},
		{`W/"abd"`, `W/"abc"`, false},
		{`abc`, `W/"abc"`, false},
		{``, `W/"abc"`, false},
		{` , `, `W/"abc"`, false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, tt.etag); got != tt.want {
			t.Errorf("etagMatches(%q, %q) = %v, want %v", tt.header, tt.etag, got, tt.want)
		}
	}
}

func TestIndustries(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/industries", nil, false)
	var list listResponse
	decodeBody(t, rec, &list)
	if len(list.Data) != 6 || list.Metadata.Count == nil || *list.Metadata.Count != 6 {
		t.Errorf("industries = %d, want 6", len(list.Data))
	}
	if rec := env.do(t, http.MethodGet, "/api/industries/retail", nil, false); rec.Code != http.StatusOK {
		t.Errorf("retail = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/industries/space", nil, false); rec.Code != http.StatusNotFound {
		t.Errorf("unknown industry = %d, want 404", rec.Code)
	}
}

func TestContactAndInbox(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/contact", models.ContactInput{Name: "Sam", Email: "sam@example.com", Message: "Need 40 domes"}, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("contact = %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/contact", models.ContactInput{Name: "Sam", Email: "not-an-email", Message: "x"}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid contact = %d, want 400", rec.Code)
	}
	var verr models.ErrorResponse
	decodeBody(t, rec, &verr)
	if verr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", verr.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/contacts", nil, true)
	var msgs struct {
		Data []models.ContactMessage `json:"data"`
	}
	decodeBody(t, rec, &msgs)
	if len(msgs.Data) != 1 || msgs.Data[0].Read {
		t.Fatalf("contacts = %+v", msgs.Data)
	}

	id := msgs.Data[0].ID
	if rec = env.do(t, http.MethodPatch, "/api/admin/contacts/"+id+"/read", nil, true); rec.Code != http.StatusOK {
		t.Errorf("mark read = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/stats", nil, true)
	var stats struct {
		Data models.DashboardStats `json:"data"`
	}
	decodeBody(t, rec, &stats)
	if stats.Data.Contacts != 1 || stats.Data.UnreadContacts != 0 {
		t.Errorf("stats = %+v", stats.Data)
	}

	if rec = env.do(t, http.MethodDelete, "/api/admin/contacts/"+id, nil, true); rec.Code != http.StatusOK {
		t.Errorf("delete contact = %d", rec.Code)
	}
	if rec = env.do(t, http.MethodDelete, "/api/admin/contacts/"+id, nil, true); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestNewsletter(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	if rec := env.do(t, http.MethodPost, "/api/newsletter", models.SubscribeInput{Email: "Pat@Example.com"}, false); rec.Code != http.StatusCreated {
		t.Fatalf("subscribe = %d: %s", rec.Code, rec.Body.String())
	}
	rec := env.do(t, http.MethodPost, "/api/newsletter", models.SubscribeInput{Email: "PAT@example.com"}, false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate subscribe = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/newsletter", nil, true)
	var subs struct {
		Data []models.Subscriber `json:"data"`
	}
	decodeBody(t, rec, &subs)
	if len(subs.Data) != 1 || subs.Data[0].Email != "pat@example.com" {
		t.Fatalf("subscribers = %+v", subs.Data)
	}
	if rec = env.do(t, http.MethodDelete, "/api/admin/newsletter/"+subs.Data[0].ID, nil, true); rec.Code != http.StatusOK {
		t.Errorf("unsubscribe = %d", rec.Code)
	}
}

func TestPublicForms_RateLimited(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Security.RateLimitReqs = 2
	env := newTestEnv(t, cfg, nil)

	body := models.ContactInput{Name: "Sam", Email: "sam@example.com", Message: "hello"}
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/contact", body, false); rec.Code != http.StatusCreated {
			t.Fatalf("request %d = %d, want 201", i+1, rec.Code)
		}
	}
	rec := env.do(t, http.MethodPost, "/api/contact", body, false)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", rec.Code)
	}
	var resp models.ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", resp.Code)
	}

	// Newsletter has its own budget.
	if rec := env.do(t, http.MethodPost, "/api/newsletter", models.SubscribeInput{Email: "a@example.com"}, false); rec.Code != http.StatusCreated {
		t.Errorf("newsletter after contact limit = %d, want 201", rec.Code)
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		hostErr    error
		body       interface{}
		wantStatus int
		wantError  string
		wantCalls  int
	}{
		{"stored", nil, map[string]string{"image": testImage, "folder": "banners"}, http.StatusOK, "", 1},
		{"bare base64", nil, map[string]string{"image": "iVBORw0KGgo="}, http.StatusOK, "", 1},
		{"missing image", nil, map[string]string{"folder": "products"}, http.StatusBadRequest, "No image provided", 0},
		{"image not a string", nil, map[string]interface{}{"image": 42}, http.StatusBadRequest, "Invalid image format", 0},
		{"non-image data uri", nil, map[string]string{"image": "data:text/plain;base64,aGk="}, http.StatusBadRequest, "Invalid image format. Only image files are allowed", 0},
		{"not json", nil, "image=abc", http.StatusBadRequest, "Invalid request body", 0},
		{"host failure", &media.HostError{Provider: "stub", Status: 502, Message: "bad gateway"}, map[string]string{"image": testImage}, http.StatusInternalServerError, "Upload failed: bad gateway", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil, &stubHost{err: tt.hostErr})

			rec := env.do(t, http.MethodPost, "/api/upload", tt.body, true)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.host.calls != tt.wantCalls {
				t.Errorf("host calls = %d, want %d", env.host.calls, tt.wantCalls)
			}
			if got := env.handler.admission.InFlight(); got != 0 {
				t.Errorf("in flight after request = %d, want 0", got)
			}

			if tt.wantStatus == http.StatusOK {
				var resp models.UploadResponse
				decodeBody(t, rec, &resp)
				if resp.URL == "" || resp.UploadID == "" {
					t.Errorf("response = %+v", resp)
				}
				return
			}
			var resp models.ErrorResponse
			decodeBody(t, rec, &resp)
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.UploadID == "" {
				t.Error("upstream failure missing uploadId")
			}
		})
	}
}

func TestUpload_UnknownFolderCoerced(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, &stubHost{})

	rec := env.do(t, http.MethodPost, "/api/upload", map[string]string{"image": testImage, "folder": "../etc"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.UploadResponse
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp.URL, "/products/") {
		t.Errorf("url = %q, want default products folder", resp.URL)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Upload.MaxPayloadBytes = 1024
	env := newTestEnv(t, cfg, &stubHost{})

	big := map[string]string{"image": "data:image/png;base64," + strings.Repeat("A", 4096)}
	rec := env.do(t, http.MethodPost, "/api/upload", big, true)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if env.handler.admission.InFlight() != 0 {
		t.Error("slot not released after oversize payload")
	}
}

func TestUpload_AdmissionCeiling(t *testing.T) {
	t.Parallel()
	host := &stubHost{started: make(chan struct{}, 8), block: make(chan struct{})}
	env := newTestEnv(t, nil, host)
	body := map[string]string{"image": testImage}

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(payload))
		req.AddCookie(env.cookie)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	var wg sync.WaitGroup
	codes := make([]int, 3)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = send().Code
		}(i)
	}
	for i := 0; i < 3; i++ {
		select {
		case <-host.started:
		case <-time.After(5 * time.Second):
			t.Fatal("uploads never reached the media host")
		}
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- send() }()
	select {
	case rec := <-done:
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("fourth upload = %d, want 429", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("429 without Retry-After")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fourth upload blocked instead of being rejected")
	}

	close(host.block)
	wg.Wait()
	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("upload %d = %d, want 200", i, code)
		}
	}
	if got := env.handler.admission.InFlight(); got != 0 {
		t.Fatalf("in flight = %d after all uploads finished", got)
	}

	if rec := env.do(t, http.MethodPost, "/api/upload", body, true); rec.Code != http.StatusOK {
		t.Errorf("upload after release = %d, want 200", rec.Code)
	}
}

// TestUpload_TimeoutReachesClient runs the default timeouts, scaled down, on a
// real listener: when both upload paths time out the 500 must still be
// written before the server's write deadline closes the connection.
func TestUpload_TimeoutReachesClient(t *testing.T) {
	t.Setenv(config.ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	defaults, err := config.LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	const scale = 100

	cfg := testConfig()
	cfg.Upload.PrimaryTimeout = defaults.Upload.PrimaryTimeout / scale
	cfg.Upload.FallbackTimeout = defaults.Upload.FallbackTimeout / scale
	host := &stubHost{block: make(chan struct{})}
	t.Cleanup(func() { close(host.block) })
	env := newTestEnv(t, cfg, host)

	srv := httptest.NewUnstartedServer(env.router)
	srv.Config.WriteTimeout = defaults.Server.WriteTimeout / scale
	srv.Start()
	t.Cleanup(srv.Close)

	payload, err := json.Marshal(map[string]string{"image": testImage})
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/upload", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(env.cookie)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("upload request failed before a response arrived: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error != "Upload failed: media host timed out" {
		t.Errorf("error = %q, want the timeout message", body.Error)
	}
	if body.UploadID == "" {
		t.Error("timeout response missing uploadId")
	}
	host.mu.Lock()
	calls := host.calls
	host.mu.Unlock()
	if calls != 2 {
		t.Errorf("host calls = %d, want primary and fallback", calls)
	}
}

func TestUpload_NoMediaHost(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/upload", map[string]string{"image": testImage}, true)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if env.handler.admission.InFlight() != 0 {
		t.Error("slot not released")
	}
}

func TestDeleteImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		hostErr    error
		body       interface{}
		wantStatus int
	}{
		{"deleted", nil, models.DeleteImageRequest{URL: "https://cdn.lenscape.test/products/img.png"}, http.StatusOK},
		{"empty url", nil, models.DeleteImageRequest{URL: "  "}, http.StatusBadRequest},
		{"foreign url", media.ErrInvalidURL, models.DeleteImageRequest{URL: "https://elsewhere.test/x.png"}, http.StatusBadRequest},
		{"host failure", &media.HostError{Provider: "stub", Status: 500, Message: "boom"}, models.DeleteImageRequest{URL: "https://cdn.lenscape.test/products/img.png"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil, &stubHost{err: tt.hostErr})
			rec := env.do(t, http.MethodPost, "/api/upload/delete", tt.body, true)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		host       *stubHost
		wantStatus int
		wantMedia  string
	}{
		{"no media", nil, http.StatusOK, "unconfigured"},
		{"closed breaker", &stubHost{}, http.StatusOK, "closed"},
		{"open breaker", &stubHost{state: "open"}, http.StatusServiceUnavailable, "open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil, tt.host)
			rec := env.do(t, http.MethodGet, "/api/health", nil, false)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp models.HealthResponse
			decodeBody(t, rec, &resp)
			if resp.Media != tt.wantMedia || resp.Store != "ok" {
				t.Errorf("health = %+v", resp)
			}
		})
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/nowhere", nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
