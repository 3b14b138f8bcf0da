// Package auth implements the admin capability check: a single shared
// secret exchanged for a signed, expiring session token carried in an
// HttpOnly cookie.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/defit-store/backend/internal/config"
)

// CookieName matches the cookie the storefront frontend expects.
const CookieName = "defit_admin"

const sessionTTL = 24 * time.Hour

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidSession  = errors.New("invalid or expired session")
)

type Sessions struct {
	secret       []byte
	password     string
	passwordHash string
}

func NewSessions(cfg config.AdminConfig) *Sessions {
	return &Sessions{
		secret:       []byte(cfg.SessionSecret),
		password:     cfg.Password,
		passwordHash: cfg.PasswordHash,
	}
}

// VerifyPassword checks the submitted password against the configured
// secret. A bcrypt hash takes precedence over the plain secret; the
// plain comparison is constant-time.
func (s *Sessions) VerifyPassword(password string) error {
	if s.passwordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// IssueToken mints an HS256-signed admin session token.
func (s *Sessions) IssueToken(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature and expiry of a session token.
func (s *Sessions) ValidateToken(tokenStr string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidSession
	}
	if claims.Subject != "admin" {
		return ErrInvalidSession
	}
	return nil
}

// SetCookie attaches the session token to the response.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(sessionTTL),
		MaxAge:   int(sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie, logging the admin out.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authenticated reports whether the request carries a valid admin
// session cookie.
func (s *Sessions) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return s.ValidateToken(cookie.Value) == nil
}
