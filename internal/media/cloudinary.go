// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package media

import (
	"context"
	"crypto/sha1" //nolint:gosec // Cloudinary's request signature is defined as SHA-1
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lenscape/internal/config"
	"github.com/tomtom215/lenscape/internal/logging"
)

const (
	providerCloudinary = "cloudinary"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4096
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

// Cloudinary talks to the Cloudinary upload API.
type Cloudinary struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	now       func() time.Time
}

// NewCloudinary creates a client from cfg. The HTTP client has no timeout of
// its own; every call is bounded by the caller's context.
func NewCloudinary(cfg config.CloudinaryConfig) *Cloudinary {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.cloudinary.com/v1_1"
	}
	return &Cloudinary{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		baseURL:   base,
		client:    &http.Client{},
		now:       time.Now,
	}
}

// Name implements Host.
func (c *Cloudinary) Name() string { return providerCloudinary }

type cloudinaryUploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Bytes     int64  `json:"bytes"`
	Format    string `json:"format"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type cloudinaryDestroyResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload implements Host.
func (c *Cloudinary) Upload(ctx context.Context, asset Asset, opts Options) (*Result, error) {
	params := url.Values{}
	params.Set("folder", asset.Folder)
	if opts.Transformation != "" {
		params.Set("transformation", opts.Transformation)
	}
	if len(opts.Tags) > 0 {
		params.Set("tags", strings.Join(opts.Tags, ","))
	}
	if opts.UniqueFilename {
		params.Set("unique_filename", "true")
	}

	var out cloudinaryUploadResponse
	if err := c.post(ctx, "upload", params, asset.DataURI, &out); err != nil {
		return nil, err
	}

	secureURL := out.SecureURL
	if secureURL == "" {
		secureURL = out.URL
	}
	if secureURL == "" {
		return nil, &HostError{Provider: providerCloudinary, Message: "upload response carried no URL"}
	}
	return &Result{URL: secureURL, PublicID: out.PublicID, Bytes: out.Bytes, Format: out.Format}, nil
}

// Delete implements Host. A missing asset counts as deleted.
func (c *Cloudinary) Delete(ctx context.Context, rawURL string) error {
	publicID, err := PublicIDFromURL(rawURL)
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("public_id", publicID)
	params.Set("invalidate", "true")

	var out cloudinaryDestroyResponse
	if err := c.post(ctx, "destroy", params, "", &out); err != nil {
		return err
	}
	switch out.Result {
	case "ok", "not found":
		if out.Result == "not found" {
			logging.Ctx(ctx).Debug().Str("public_id", publicID).Msg("Cloudinary asset already gone")
		}
		return nil
	default:
		return &HostError{Provider: providerCloudinary, Message: fmt.Sprintf("destroy returned %q", out.Result)}
	}
}

// post sends a signed form request to /<cloud>/image/<action>.
func (c *Cloudinary) post(ctx context.Context, action string, params url.Values, file string, out interface{}) error {
	if c.cloudName == "" || c.apiKey == "" || c.apiSecret == "" {
		return &HostError{Provider: providerCloudinary, Message: "credentials not configured"}
	}

	params.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	params.Set("signature", c.sign(params))
	params.Set("api_key", c.apiKey)
	if file != "" {
		params.Set("file", file)
	}

	endpoint := fmt.Sprintf("%s/%s/image/%s", c.baseURL, url.PathEscape(c.cloudName), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return upstream(providerCloudinary, action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HostError{Provider: providerCloudinary, Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return upstream(providerCloudinary, action, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// sign computes the request signature: SHA-1 over the sorted "k=v" pairs
// joined with "&", followed by the API secret. file, api_key, cloud_name and
// resource_type are not signed.
func (c *Cloudinary) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		switch k {
		case "file", "api_key", "cloud_name", "resource_type", "signature":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret)) //nolint:gosec // provider-defined signature
	return hex.EncodeToString(sum[:])
}

// readErrorMessage extracts error.message from a Cloudinary error body,
// falling back to the raw (bounded) body.
func readErrorMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "empty error response"
}

// PublicIDFromURL derives the public ID from a delivery URL:
//
//	https://res.cloudinary.com/demo/image/upload/v1712/products/cam-01.jpg -> products/cam-01
//	https://res.cloudinary.com/demo/image/upload/c_fill,w_300/v1712/navbar/logo.png -> navbar/logo
func PublicIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	start := -1
	for i, s := range segments {
		if s == "upload" {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(segments) {
		return "", fmt.Errorf("%w: no upload segment in %q", ErrInvalidURL, rawURL)
	}

	rest := segments[start:]
	versioned := false
	for i, s := range rest {
		if versionSegment.MatchString(s) {
			rest = rest[i+1:]
			versioned = true
			break
		}
	}
	// Without a version segment, drop leading transformation segments.
	for !versioned && len(rest) > 1 && isTransformation(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", fmt.Errorf("%w: no public ID in %q", ErrInvalidURL, rawURL)
	}

	last := rest[len(rest)-1]
	rest[len(rest)-1] = strings.TrimSuffix(last, path.Ext(last))
	id, err := url.PathUnescape(strings.Join(rest, "/"))
	if err != nil || id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return id, nil
}

func isTransformation(segment string) bool {
	if strings.Contains(segment, ",") {
		return true
	}
	i := strings.IndexByte(segment, '_')
	return i > 0 && i <= 3
}
