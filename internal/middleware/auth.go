package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"user-service/internal/model"
	"user-service/internal/service"
)

// AdminRole gates the role-administration endpoints.
const AdminRole = "admin"

type tokenDecoder interface {
	Decode(tokenString string, expectedType string) (*service.Claims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	decoder tokenDecoder
}

func NewAuthMiddleware(decoder tokenDecoder) *AuthMiddleware {
	return &AuthMiddleware{decoder: decoder}
}

// RequireAuth validates the bearer access token and stores its claims in the
// request context. The three failure messages are fixed; business-level auth
// failures elsewhere never reuse them.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "Authorization token is required")
			return
		}

		claims, err := m.decoder.Decode(strings.TrimSpace(header[7:]), service.TokenTypeAccess)
		if err != nil {
			if errors.Is(err, model.ErrTokenExpired) {
				writeAuthError(w, http.StatusUnauthorized, "Token has expired")
				return
			}
			writeAuthError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers whose access-token role snapshot lacks the
// admin role, before the handler runs.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "Authorization token is required")
			return
		}

		if !claims.HasRole(AdminRole) {
			writeAuthError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*service.Claims)
	return claims, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
