// Package session wraps the external identity provider behind an injectable
// capability. The provider issues the token and owns verification; this
// package only reads claims out of it. There is no package-level singleton:
// a Session is constructed once at startup and passed to whatever needs it.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"

	"eventora/src/internal/core"
	"eventora/src/pkg/apperror"
)

// Session is the identity capability consumed by the usecase layer.
type Session interface {
	IsAuthenticated() bool
	Claims() (*core.Claims, error)
	Token() string
	Login() error
	Logout()
}

// LoginFunc obtains a fresh bearer token from the identity provider. In the
// browser this is the redirect to the login page; here it is injected.
type LoginFunc func() (string, error)

// tokenClaims mirrors the identity provider's token payload.
type tokenClaims struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	jwt.StandardClaims
}

// TokenSession holds the current bearer token and its parsed claims.
type TokenSession struct {
	login LoginFunc
	now   func() time.Time

	mu     sync.RWMutex
	token  string
	claims *core.Claims
	expiry time.Time
}

// New constructs a session from an already-issued token. The token may be
// empty; Login fetches one on demand.
func New(token string, login LoginFunc) (*TokenSession, error) {
	s := &TokenSession{login: login, now: time.Now}
	if token != "" {
		if err := s.adopt(token); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// adopt parses the token's claims and stores them. The signature is not
// checked here: verification belongs to the issuer, and every backend call
// is re-checked server-side anyway.
func (s *TokenSession) adopt(token string) error {
	claims := &tokenClaims{}
	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("parse session token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = &core.Claims{
		Subject:     claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		PhoneNumber: claims.PhoneNumber,
		Roles:       claims.RealmAccess.Roles,
	}
	if claims.ExpiresAt != 0 {
		s.expiry = time.Unix(claims.ExpiresAt, 0)
	} else {
		s.expiry = time.Time{}
	}
	return nil
}

// IsAuthenticated reports whether a non-expired token is held.
func (s *TokenSession) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	if !s.expiry.IsZero() && s.now().After(s.expiry) {
		return false
	}
	return true
}

// Claims returns the current viewer's identity.
func (s *TokenSession) Claims() (*core.Claims, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return nil, apperror.Wrap(apperror.ErrAuth, "no active session")
	}
	c := *s.claims
	c.Roles = append([]string(nil), s.claims.Roles...)
	return &c, nil
}

// Token returns the raw bearer token, or "" when logged out.
func (s *TokenSession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login asks the identity provider for a token and adopts it.
func (s *TokenSession) Login() error {
	if s.login == nil {
		return apperror.Wrap(apperror.ErrAuth, "no login capability configured")
	}
	token, err := s.login()
	if err != nil {
		return apperror.Wrap(apperror.ErrAuth, err.Error())
	}
	return s.adopt(token)
}

// Logout tears the session down. Subsequent calls see an unauthenticated
// session until Login succeeds again.
func (s *TokenSession) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.claims = nil
	s.expiry = time.Time{}
}
