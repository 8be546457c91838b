// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

// Package auth implements the admin session gate.
//
// There is a single admin principal configured through ADMIN_EMAIL and
// ADMIN_PASSWORD. A successful login issues a stateless HS256 JWT, valid for 24
// hours, in the admin_token cookie. Every request under /admin and the admin
// API re-verifies that token; there is no server-side session store.
//
// Logout only deletes the cookie. A copied token stays valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role issued.
const RoleAdmin = "admin"

// Claims are the session token claims.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager signing with secret.
//
// Parameters:
//   - secret: HMAC signing key, normally JWT_SECRET
//   - ttl: token lifetime; sessions always use DefaultSessionTTL
//
// Returns:
//   - Pointer to an initialized TokenManager
//   - error if secret is empty or ttl is not positive
//
// Security:
//   - Tokens are signed with HS256 (HMAC with SHA-256)
//   - The secret is kept as []byte and never logged
//   - Production config validation requires at least 32 characters
//
// An empty secret is an error rather than a panic; in development the session
// manager treats it as "unconfigured" and rejects every login.
//
// Example:
//
//	tokens, err := auth.NewTokenManager(cfg.Security.JWTSecret, auth.DefaultSessionTTL)
//	if err != nil {
//		return fmt.Errorf("session signing: %w", err)
//	}
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session lifetime must be positive, got %v", ttl)
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// GenerateToken signs a session token for the admin principal.
//
// Parameters:
//   - email: the admin email, stored as both the email claim and the subject
//
// Returns:
//   - Signed compact JWT
//   - Expiry time, iat plus the manager TTL, used for the cookie Max-Age
//   - error if signing fails
//
// Token Claims:
//   - email, sub: the admin email
//   - role: always RoleAdmin
//   - iat, nbf: issue time truncated to the second
//   - exp: iat + TTL
//
// Security:
//   - Tokens are stateless and cannot be revoked before exp
//   - They are delivered only in the HttpOnly admin_token cookie
//
// Example:
//
//	token, expiresAt, err := tokens.GenerateToken(cfg.AdminEmail)
//	if err != nil {
//		return nil, fmt.Errorf("issue session: %w", err)
//	}
//	http.SetCookie(w, sessions.SessionCookie(token, expiresAt))
func (m *TokenManager) GenerateToken(email string) (string, time.Time, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	claims := &Claims{
		Email: email,
		Role:  RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies a session token and returns its claims.
//
// Parameters:
//   - tokenString: compact JWT taken from the admin_token cookie
//
// Returns:
//   - Pointer to the verified Claims
//   - error wrapping ErrInvalidSession on any failure, with the parser error
//     also wrapped so IsExpired can tell an expired token apart
//
// Validation Steps:
//  1. Reject any algorithm other than HS256
//  2. Verify the HMAC signature against the secret
//  3. Require exp and check exp, nbf and iat against the server clock
//  4. Require role == RoleAdmin
//
// Security:
//   - "none" and asymmetric algorithms are refused, so an attacker cannot
//     substitute their own key
//   - Time checks use the server clock, never a client-supplied value
//
// Example:
//
//	claims, err := tokens.ValidateToken(cookie.Value)
//	if auth.IsExpired(err) {
//		// send the visitor back to the login page
//	}
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidSession)
	}
	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("%w: unexpected role %q", ErrInvalidSession, claims.Role)
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired but otherwise valid token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
