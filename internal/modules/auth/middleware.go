package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/eskrenkovic/tabletop-go/internal/modules/core"
)

// Middleware rejects requests without a valid bearer token and stores the
// caller identity in the request context for handlers to pick up.
func Middleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				core.WriteUnauthorized(w, r)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" {
				core.WriteUnauthorized(w, r)
				return
			}

			userID, err := issuer.Parse(token)
			if err != nil {
				core.WriteUnauthorized(w, r)
				return
			}

			session := core.ContextSession{UserID: userID}
			ctx := context.WithValue(r.Context(), core.SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
