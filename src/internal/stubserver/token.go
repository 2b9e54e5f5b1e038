package stubserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"eventora/src/pkg/response"
)

// The stub stands in for the identity provider too, so it signs its own
// tokens. The key only matters within one process.
var signingKey = []byte("stub-signing-key")

type stubClaims struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	jwt.StandardClaims
}

// MintToken issues a bearer token for the given subject and roles, in the
// shape the real identity provider uses.
func MintToken(subject, name, email, phone string, roles ...string) (string, error) {
	claims := &stubClaims{
		Name:        name,
		Email:       email,
		PhoneNumber: phone,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			ExpiresAt: time.Now().Add(5 * time.Hour).Unix(),
		},
	}
	claims.RealmAccess.Roles = roles
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

type contextKey string

const claimsKey contextKey = "claims"

// authenticate rejects requests without a valid bearer token and stashes
// the claims on the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.WriteError(w, http.StatusUnauthorized, "Missing Authorization Token")
			return
		}
		claims := &stubClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(*jwt.Token) (interface{}, error) {
			return signingKey, nil
		})
		if err != nil {
			response.WriteError(w, http.StatusUnauthorized, "Invalid Authorization Token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a route on role membership.
func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(claimsKey).(*stubClaims)
			if !ok {
				response.WriteError(w, http.StatusUnauthorized, "Missing Authorization Token")
				return
			}
			for _, have := range claims.RealmAccess.Roles {
				if have == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.WriteError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

func subjectFrom(r *http.Request) string {
	if claims, ok := r.Context().Value(claimsKey).(*stubClaims); ok {
		return claims.Subject
	}
	return ""
}
