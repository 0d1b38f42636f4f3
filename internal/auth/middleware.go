package auth

import (
	"net/http"
	"strings"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Middleware resolves bearer credentials into a request identity.
type Middleware struct {
	validator *Validator
}

// NewMiddleware constructs the bearer middleware.
func NewMiddleware(validator *Validator) *Middleware {
	return &Middleware{validator: validator}
}

// Authenticate attaches the identity of a valid bearer token to the request
// context. Missing or invalid tokens leave the request anonymous.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" {
			if id, ok := m.validator.Identity(token); ok {
				r = r.WithContext(shared.ContextWithIdentity(r.Context(), &id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
