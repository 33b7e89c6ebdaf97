package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the gateway session cookie.
	CookieName = "payland_session"

	// RememberTTL is the cookie and claim lifetime for "remember me" logins.
	RememberTTL = 30 * 24 * time.Hour
	// SessionTTL guards session-scoped logins server-side; the browser drops
	// the cookie itself when the tab session ends.
	SessionTTL = 24 * time.Hour
)

// CookieClaims carries the gateway session ID inside the signed cookie.
type CookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieService signs and verifies the session cookie value.
type CookieService struct {
	secret []byte
}

// NewCookieService creates a cookie service from the configured secret.
func NewCookieService(secret string) *CookieService {
	return &CookieService{secret: []byte(secret)}
}

// Sign creates a signed cookie value for the session ID.
func (s *CookieService) Sign(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CookieClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Verify parses a cookie value and returns the session ID it carries.
func (s *CookieService) Verify(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &CookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return "", fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse session cookie: %w", err)
	}

	claims, ok := token.Claims.(*CookieClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session cookie")
	}
	return claims.SessionID, nil
}
