// Package csrf issues and verifies the signed token carried in the csrf_token cookie.
package csrf

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the cookie holding the CSRF token.
const CookieName = "csrf_token"

// DefaultMaxAge bounds how long an issued token stays valid.
const DefaultMaxAge = 12 * time.Hour

var (
	ErrMissingToken = errors.New("the CSRF token is missing")
	ErrInvalidToken = errors.New("the CSRF token is invalid")
)

// payload is what a token encodes. Subject is the session user id, empty for anonymous visitors.
type payload struct {
	Nonce   []byte
	Subject string
}

// Guard signs random nonces bound to a session subject with an HMAC key.
type Guard struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// New creates a Guard. Secure marks issued cookies as HTTPS only.
func New(hashKey []byte, maxAge time.Duration, secure bool) *Guard {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(maxAge.Seconds()))
	return &Guard{
		codec:  codec,
		maxAge: maxAge,
		secure: secure,
	}
}

// Issue returns a fresh signed token bound to subject.
func (g *Guard) Issue(subject string) (string, error) {
	nonce := securecookie.GenerateRandomKey(32)
	if nonce == nil {
		return "", errors.New("failed to generate CSRF nonce")
	}
	token, err := g.codec.Encode(CookieName, payload{Nonce: nonce, Subject: subject})
	if err != nil {
		return "", fmt.Errorf("failed to encode CSRF token: %w", err)
	}
	return token, nil
}

// Verify checks that token was issued by this Guard for subject and has not expired.
func (g *Guard) Verify(token, subject string) error {
	if token == "" {
		return ErrMissingToken
	}
	var p payload
	if err := g.codec.Decode(CookieName, token, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if p.Subject != subject {
		return fmt.Errorf("%w: issued for another session", ErrInvalidToken)
	}
	return nil
}

// Cookie builds the cookie carrying token.
func (g *Guard) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.maxAge.Seconds()),
		Secure:   g.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
