// internal/handler/common.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxJSONBody = 2 << 20

type ErrorResponse struct { // TypeGen: ErrorResponse
	BaseResponse
	Error   string    `json:"error"`
	Details *[]string `json:"details,omitempty"`
	Code    *string   `json:"error_code,omitempty"`
}

type BaseResponse struct { // TypeGen: DefaultResponse
	Ok bool `json:"ok"`
}

var kindStatus = map[domain.Kind]int{
	domain.KindValidation:       http.StatusBadRequest,
	domain.KindNotFound:         http.StatusNotFound,
	domain.KindConflict:         http.StatusConflict,
	domain.KindInvalidOperation: http.StatusUnprocessableEntity,
	domain.KindExpired:          http.StatusGone,
	domain.KindStorage:          http.StatusBadGateway,
	domain.KindInternal:         http.StatusInternalServerError,
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	kind := string(domain.KindValidation)
	if code == http.StatusUnauthorized {
		kind = "unauthorized"
	}
	respondWithJSON(w, code, ErrorResponse{Error: message, Code: &kind})
}

// respondWithDomainError maps err to its status code. Internal errors are
// logged and their text is not echoed to the client.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := kindStatus[kind]
	code := string(kind)

	resp := ErrorResponse{Error: err.Error(), Code: &code}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		details := verr.Details()
		resp.Details = &details
	}

	if kind == domain.KindInternal || kind == domain.KindStorage {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error_code", code,
			"error", err,
		)
		if kind == domain.KindInternal {
			resp.Error = "internal error"
		}
	}

	respondWithJSON(w, status, resp)
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// tenant resolves the authenticated tenant or writes a 401.
func tenant(w http.ResponseWriter, r *http.Request) (domain.Tenant, bool) {
	t, ok := domain.TenantFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return domain.Tenant{}, false
	}
	return t, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional uuid query parameter.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return n, true
}

// queryDate accepts YYYY-MM-DD or RFC3339.
func queryDate(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		return d, true
	}
	d, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return time.Time{}, false
	}
	return d.UTC(), true
}

func queryPage(w http.ResponseWriter, r *http.Request) (repository.Page, bool) {
	page, ok := queryInt(w, r, "page")
	if !ok {
		return repository.Page{}, false
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return repository.Page{}, false
	}
	return repository.Page{Page: page, Limit: limit}, true
}
