package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/Self-Labs/pmes/internal/auth"
	"github.com/Self-Labs/pmes/internal/model"
)

type contextKey string

const actorKey contextKey = "actor"

// actorFrom returns the authenticated actor stored in ctx, or nil when the
// request was not authenticated.
func actorFrom(ctx context.Context) *model.Actor {
	a, _ := ctx.Value(actorKey).(*model.Actor)
	return a
}

// AuthMiddleware wraps an http.Handler and verifies the Authorization header
// carries a valid bearer token issued by tokens. The decoded actor is stored
// in the request context. GET /v1/health and the /v1/auth/ endpoints are
// exempt.
func AuthMiddleware(tokens *auth.TokenIssuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/v1/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing authorization header")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid authorization scheme")
			return
		}

		actor, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

// requireAdmin rejects the request unless the actor holds the admin role.
// Returns the actor on success, nil after writing the error response.
func requireAdmin(w http.ResponseWriter, r *http.Request) *model.Actor {
	actor := actorFrom(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		return nil
	}
	if actor.Role != model.RoleAdmin {
		writeError(w, http.StatusForbidden, codePermissionDenied, "admin role required")
		return nil
	}
	return actor
}
