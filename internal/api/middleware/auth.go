package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/matchmaker/internal/api/apierr"
	"github.com/mcoot/matchmaker/internal/services/auth"
)

// Auth creates authentication middleware. Every matchmaker call carries a
// bearer token: a namespace public token, a dev token or a lobby token.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ident, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), ident)))
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetIdentity returns the authenticated caller from the request context
func GetIdentity(ctx context.Context) *auth.Identity {
	return auth.IdentityFromContext(ctx)
}

// MustGetIdentity returns the authenticated caller or panics
func MustGetIdentity(ctx context.Context) *auth.Identity {
	ident := GetIdentity(ctx)
	if ident == nil {
		panic("no identity in context - auth middleware not applied?")
	}
	return ident
}
