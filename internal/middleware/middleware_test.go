package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/auth"
	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenantEcho(t *testing.T, want *domain.Tenant) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := domain.TenantFromContext(r.Context())
		require.True(t, ok)
		*want = got
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)
	userID, orgID := uuid.New(), uuid.New()
	token, err := tm.Generate(userID, orgID, "admin")
	require.NoError(t, err)

	t.Run("valid token sets tenant", func(t *testing.T) {
		var got domain.Tenant
		h := AuthMiddleware(tm)(tenantEcho(t, &got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, orgID, got.OrganizationID)
		assert.Equal(t, userID, got.ActorID)
	})

	for name, header := range map[string]string{
		"missing":   "",
		"no scheme": token,
		"basic":     "Basic " + token,
		"garbage":   "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			h := AuthMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error_code":"unauthorized"`)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole("admin")(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(domain.WithTenant(req.Context(), domain.Tenant{OrganizationID: uuid.New(), Role: "auditor"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(domain.WithTenant(req.Context(), domain.Tenant{OrganizationID: uuid.New(), Role: "admin"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadOnlyRoles(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := ReadOnlyRoles("auditor")(ok)

	serve := func(method, role string) int {
		req := httptest.NewRequest(method, "/", nil)
		req = req.WithContext(domain.WithTenant(req.Context(), domain.Tenant{OrganizationID: uuid.New(), Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "auditor"))
	assert.Equal(t, http.StatusForbidden, serve(http.MethodPost, "auditor"))
	assert.Equal(t, http.StatusForbidden, serve(http.MethodDelete, "auditor"))
	assert.Equal(t, http.StatusOK, serve(http.MethodPost, "admin"))
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}
