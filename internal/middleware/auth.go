// internal/middleware/auth.go
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dangerclosesec/qualitrack/internal/auth"
	"github.com/dangerclosesec/qualitrack/internal/domain"
)

type errorBody struct {
	Ok        bool   `json:"ok"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// AuthMiddleware validates the bearer token and places the caller's tenant
// in the request context.
func AuthMiddleware(tokenManager *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondUnauthorized(w, "No authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				respondUnauthorized(w, "Invalid authorization header")
				return
			}

			claims, err := tokenManager.Validate(token)
			if err != nil {
				respondUnauthorized(w, "Invalid token")
				return
			}

			ctx := domain.WithTenant(r.Context(), claims.Tenant())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects tenants whose role is not listed.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, ok := domain.TenantFromContext(r.Context())
			if !ok {
				respondUnauthorized(w, "Not authenticated")
				return
			}
			if _, ok := allowed[t.Role]; !ok {
				respond(w, http.StatusForbidden, errorBody{Error: "Insufficient role", ErrorCode: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ReadOnlyRoles lets the listed roles through on safe methods only.
func ReadOnlyRoles(roles ...string) func(http.Handler) http.Handler {
	readOnly := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		readOnly[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, ok := domain.TenantFromContext(r.Context())
			if !ok {
				respondUnauthorized(w, "Not authenticated")
				return
			}
			if _, restricted := readOnly[t.Role]; restricted {
				switch r.Method {
				case http.MethodGet, http.MethodHead, http.MethodOptions:
				default:
					respond(w, http.StatusForbidden, errorBody{Error: "Read-only access", ErrorCode: "forbidden"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respond(w, http.StatusUnauthorized, errorBody{Error: message, ErrorCode: "unauthorized"})
}

func respond(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
