// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/lenscape/internal/config"
	"github.com/tomtom215/lenscape/internal/logging"
)

const (
	// CookieName is the session cookie.
	CookieName = "admin_token"

	// DefaultSessionTTL is the token and cookie lifetime.
	DefaultSessionTTL = 24 * time.Hour
)

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	AdminEmail    string
	AdminPassword string
	Secret        string
	TTL           time.Duration

	// CookieSecure sets the Secure attribute. Only local development turns it off.
	CookieSecure bool

	// CookieDomain sets the Domain attribute. Empty gives a host-only cookie.
	CookieDomain string
}

// SessionConfigFromConfig extracts the session settings from the app config.
// The lifetime is always DefaultSessionTTL; it is not configurable.
func SessionConfigFromConfig(cfg *config.Config) SessionConfig {
	return SessionConfig{
		AdminEmail:    cfg.Security.AdminEmail,
		AdminPassword: cfg.Security.AdminPassword,
		Secret:        cfg.Security.JWTSecret,
		TTL:           DefaultSessionTTL,
		CookieSecure:  cfg.Security.CookieSecure,
		CookieDomain:  cfg.Server.SiteDomain,
	}
}

// SessionManager issues, verifies and ends admin sessions.
type SessionManager struct {
	cfg    SessionConfig
	tokens *TokenManager
}

// NewSessionManager builds a manager. Missing credentials or secret do not fail
// construction; the manager reports Configured() == false and rejects every
// login. Production startup refuses that state in config validation.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}

	m := &SessionManager{cfg: cfg}
	if cfg.Secret != "" {
		tokens, err := NewTokenManager(cfg.Secret, cfg.TTL)
		if err == nil {
			m.tokens = tokens
		}
	}

	if !m.Configured() {
		logging.Warn().
			Bool("email_set", cfg.AdminEmail != "").
			Bool("password_set", cfg.AdminPassword != "").
			Bool("secret_set", cfg.Secret != "").
			Msg("Admin login is not configured; all login attempts will be rejected")
	}
	return m
}

// Configured reports whether the admin principal and signing secret are set.
func (m *SessionManager) Configured() bool {
	return m.cfg.AdminEmail != "" && m.cfg.AdminPassword != "" && m.tokens != nil
}

// IssueSession checks the submitted credentials and returns the session cookie.
//
// Parameters:
//   - email, password: the submitted login form values
//
// Returns:
//   - The admin_token cookie carrying a fresh 24h token
//   - ErrInvalidCredentials when either value does not match, or when the
//     admin principal is not configured
//   - A wrapped signing error otherwise
//
// Security:
//   - Both values are compared in constant time, and both comparisons always
//     run, so timing does not reveal which one was wrong
//   - The error never says which field failed
func (m *SessionManager) IssueSession(email, password string) (*http.Cookie, error) {
	if !m.Configured() {
		logging.Warn().Msg("Login attempted while admin credentials are not configured")
		return nil, ErrInvalidCredentials
	}

	emailOK := secureEqual(email, m.cfg.AdminEmail)
	passwordOK := secureEqual(password, m.cfg.AdminPassword)
	if !emailOK || !passwordOK {
		logging.Debug().
			Bool("email_match", emailOK).
			Bool("password_match", passwordOK).
			Msg("Login rejected")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := m.tokens.GenerateToken(m.cfg.AdminEmail)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return m.SessionCookie(token, expiresAt), nil
}

// VerifyToken validates a raw token string.
func (m *SessionManager) VerifyToken(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if m.tokens == nil {
		return nil, fmt.Errorf("%w: signing secret not configured", ErrInvalidSession)
	}
	return m.tokens.ValidateToken(token)
}

// VerifySession validates the session cookie on r. A missing or empty cookie
// is ErrUnauthenticated; anything else that fails is ErrInvalidSession.
func (m *SessionManager) VerifySession(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrUnauthenticated
	}
	return m.VerifyToken(cookie.Value)
}

// SessionCookie wraps a signed token in the session cookie.
func (m *SessionManager) SessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		Expires:  expiresAt,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie returns a cookie that deletes the session cookie. Name,
// path and domain match the issued cookie so browsers replace it.
func (m *SessionManager) ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// EndSession instructs the client to drop its session cookie. The token itself
// is not revoked.
func (m *SessionManager) EndSession(w http.ResponseWriter) {
	http.SetCookie(w, m.ClearSessionCookie())
}

// secureEqual compares in constant time. Hashing first keeps the comparison
// independent of the two lengths.
func secureEqual(got, want string) bool {
	a := sha256.Sum256([]byte(got))
	b := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
