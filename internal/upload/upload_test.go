// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package upload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lenscape/internal/media"
)

func TestAdmission_CeilingAndRelease(t *testing.T) {
	t.Parallel()
	gate := NewAdmission(3)

	var releases []ReleaseFunc
	for i := 0; i < 3; i++ {
		release, err := gate.Admit()
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		releases = append(releases, release)
	}

	if _, err := gate.Admit(); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("4th admit err = %v, want ErrTooManyRequests", err)
	}
	if gate.InFlight() != 3 {
		t.Errorf("InFlight = %d, want 3", gate.InFlight())
	}

	releases[0]()
	releases[0]()
	if gate.InFlight() != 2 {
		t.Errorf("InFlight after double release = %d, want 2", gate.InFlight())
	}

	for _, release := range releases[1:] {
		release()
	}
	if gate.InFlight() != 0 {
		t.Errorf("InFlight = %d, want 0", gate.InFlight())
	}

	for i := 0; i < 3; i++ {
		release, err := gate.Admit()
		if err != nil {
			t.Fatalf("sequential admit %d after burst: %v", i, err)
		}
		release()
	}
}

func TestAdmission_DefaultCeiling(t *testing.T) {
	t.Parallel()
	if got := NewAdmission(0).Ceiling(); got != DefaultMaxConcurrent {
		t.Errorf("Ceiling = %d, want %d", got, DefaultMaxConcurrent)
	}
}

func TestAdmission_ReleasedOnPanic(t *testing.T) {
	t.Parallel()
	gate := NewAdmission(1)

	func() {
		defer func() { _ = recover() }()
		release, err := gate.Admit()
		if err != nil {
			t.Fatalf("Admit: %v", err)
		}
		defer release()
		panic("boom")
	}()

	if gate.InFlight() != 0 {
		t.Errorf("InFlight = %d, want 0 after panic", gate.InFlight())
	}
}

func TestAdmission_ConcurrentNeverExceedsCeiling(t *testing.T) {
	t.Parallel()
	const ceiling = 3
	gate := NewAdmission(ceiling)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		peak     int
		current  int
	)
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			release, err := gate.Admit()
			if err != nil {
				return
			}
			defer release()

			mu.Lock()
			admitted++
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	if peak > ceiling {
		t.Errorf("peak concurrency = %d, want <= %d", peak, ceiling)
	}
	if admitted == 0 {
		t.Error("no request admitted")
	}
	if gate.InFlight() != 0 {
		t.Errorf("InFlight = %d, want 0", gate.InFlight())
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()
	v := NewValidator(DefaultMaxPayloadBytes, "products")

	tests := []struct {
		name       string
		image      string
		folder     string
		wantStatus int
		wantURI    string
		wantMIME   string
		wantFolder string
	}{
		{"png data uri", `"data:image/png;base64,AAAA"`, `"banners"`, 0, "data:image/png;base64,AAAA", "image/png", "banners"},
		{"bare base64 gets jpeg prefix", `"AAAA"`, `"navbar"`, 0, "data:image/jpeg;base64,AAAA", "image/jpeg", "navbar"},
		{"uppercase folder", `"data:image/webp;base64,AAAA"`, `" Categories "`, 0, "data:image/webp;base64,AAAA", "image/webp", "categories"},
		{"unknown folder coerced", `"data:image/png;base64,AAAA"`, `"../../etc"`, 0, "data:image/png;base64,AAAA", "image/png", "products"},
		{"missing folder coerced", `"data:image/png;base64,AAAA"`, ``, 0, "data:image/png;base64,AAAA", "image/png", "products"},
		{"numeric folder coerced", `"data:image/png;base64,AAAA"`, `42`, 0, "data:image/png;base64,AAAA", "image/png", "products"},
		{"missing image", ``, `"products"`, http.StatusBadRequest, "", "", ""},
		{"null image", `null`, `"products"`, http.StatusBadRequest, "", "", ""},
		{"empty image", `""`, `"products"`, http.StatusBadRequest, "", "", ""},
		{"image not a string", `{"data":"x"}`, `"products"`, http.StatusBadRequest, "", "", ""},
		{"image number", `12`, ``, http.StatusBadRequest, "", "", ""},
		{"non-image data uri", `"data:application/pdf;base64,AAAA"`, ``, http.StatusBadRequest, "", "", ""},
		{"text data uri", `"data:text/html,<b>x</b>"`, ``, http.StatusBadRequest, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := v.Validate(json.RawMessage(tt.image), json.RawMessage(tt.folder))
			if tt.wantStatus != 0 {
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Status != tt.wantStatus {
					t.Fatalf("err = %v, want status %d", err, tt.wantStatus)
				}
				if !errors.Is(err, ErrValidation) {
					t.Error("error does not match ErrValidation")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if p.DataURI != tt.wantURI || p.MIMEType != tt.wantMIME || p.Folder != tt.wantFolder {
				t.Errorf("payload = %+v", p)
			}
		})
	}
}

func TestValidator_DecodedSizeCeiling(t *testing.T) {
	t.Parallel()
	v := NewValidator(1<<20, "products")
	v.MaxImageBytes = 30

	ok := `"` + strings.Repeat("A", 40) + `"`
	if _, err := v.Validate(json.RawMessage(ok), nil); err != nil {
		t.Fatalf("40 base64 chars (~30 bytes) rejected: %v", err)
	}

	big := `"` + strings.Repeat("A", 44) + `"`
	_, err := v.Validate(json.RawMessage(big), nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("err = %v, want 413", err)
	}
}

func TestValidator_Parse(t *testing.T) {
	t.Parallel()
	v := NewValidator(64, "products")

	tests := []struct {
		name       string
		body       string
		length     int64
		wantStatus int
	}{
		{"valid", `{"image":"data:image/png;base64,AAAA"}`, -1, 0},
		{"declared length too big", `{}`, 65, http.StatusRequestEntityTooLarge},
		{"streamed body too big", `{"image":"` + strings.Repeat("A", 100) + `"}`, -1, http.StatusRequestEntityTooLarge},
		{"invalid json", `{"image":`, -1, http.StatusBadRequest},
		{"empty object", `{}`, -1, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(tt.body))
			req.ContentLength = tt.length
			rec := httptest.NewRecorder()

			_, err := v.Parse(rec, req)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Status != tt.wantStatus {
				t.Errorf("err = %v, want status %d", err, tt.wantStatus)
			}
		})
	}
}

type scriptedHost struct {
	mu       sync.Mutex
	calls    []media.Options
	failures int
	delay    time.Duration
}

func (h *scriptedHost) Name() string { return "scripted" }

func (h *scriptedHost) Upload(ctx context.Context, asset media.Asset, opts media.Options) (*media.Result, error) {
	h.mu.Lock()
	h.calls = append(h.calls, opts)
	fail := len(h.calls) <= h.failures
	h.mu.Unlock()

	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, &media.HostError{Provider: "scripted", Status: 502, Message: "bad gateway"}
	}
	return &media.Result{URL: "https://cdn.test/" + asset.Folder + "/x.jpg"}, nil
}

func (h *scriptedHost) Delete(context.Context, string) error { return nil }

func testPayload() *Payload {
	return &Payload{DataURI: "data:image/png;base64,AAAA", MIMEType: "image/png", Folder: "products"}
}

func TestUploader_PrimarySucceeds(t *testing.T) {
	t.Parallel()
	host := &scriptedHost{}
	u := NewUploader(host, time.Second, time.Second)

	res, err := u.Upload(context.Background(), "id-1", testPayload())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.URL != "https://cdn.test/products/x.jpg" {
		t.Errorf("url = %q", res.URL)
	}
	if len(host.calls) != 1 || host.calls[0].Transformation == "" || !host.calls[0].UniqueFilename {
		t.Errorf("calls = %+v, want one primary call with options", host.calls)
	}
}

func TestUploader_FallbackUsesNoOptions(t *testing.T) {
	t.Parallel()
	host := &scriptedHost{failures: 1}
	u := NewUploader(host, time.Second, time.Second)

	if _, err := u.Upload(context.Background(), "id-2", testPayload()); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(host.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(host.calls))
	}
	if fallback := host.calls[1]; fallback.Transformation != "" || len(fallback.Tags) != 0 || fallback.UniqueFilename {
		t.Errorf("fallback options = %+v, want zero", fallback)
	}
}

func TestUploader_BothFail(t *testing.T) {
	t.Parallel()
	host := &scriptedHost{failures: 2}
	u := NewUploader(host, time.Second, time.Second)

	_, err := u.Upload(context.Background(), "id-3", testPayload())
	if !errors.Is(err, media.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "bad gateway") {
		t.Errorf("err = %q, want upstream message", err)
	}
}

func TestUploader_BothTimeOut(t *testing.T) {
	t.Parallel()
	host := &scriptedHost{delay: time.Second}
	u := NewUploader(host, 20*time.Millisecond, 10*time.Millisecond)

	start := time.Now()
	_, err := u.Upload(context.Background(), "id-4", testPayload())
	if !errors.Is(err, media.ErrUpstream) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want upstream timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("took %v, timeouts not applied", elapsed)
	}
}
