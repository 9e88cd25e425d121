package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("title", "is required"), http.StatusBadRequest, "validation"},
		{"not found", domain.ErrDocumentNotFound, http.StatusNotFound, "not_found"},
		{"conflict", domain.ErrBPFYearExists, http.StatusConflict, "conflict"},
		{"invalid operation", domain.ErrBPFNotDraft, http.StatusUnprocessableEntity, "invalid_operation"},
		{"expired", domain.ErrInvitationExpired, http.StatusGone, "expired"},
		{"storage", fmt.Errorf("%w: disk full", domain.ErrStorage), http.StatusBadGateway, "storage"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithDomainError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.NotNil(t, body.Code)
			assert.Equal(t, tt.code, *body.Code)
			assert.False(t, body.Ok)
		})
	}
}

func TestRespondWithDomainError_Details(t *testing.T) {
	verr := &domain.ValidationError{Fields: map[string]string{"year": "is required", "data": "must be an object"}}
	rec := httptest.NewRecorder()
	respondWithDomainError(rec, httptest.NewRequest(http.MethodPost, "/", nil), verr)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Details)
	assert.Equal(t, []string{"data: must be an object", "year: is required"}, *body.Details)
}

func TestRespondWithDomainError_HidesInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithDomainError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Error)
}

func TestQueryDate(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want string
	}{
		{"", true, "0001-01-01"},
		{"2026-03-01", true, "2026-03-01"},
		{"2026-03-01T21:30:00Z", true, "2026-03-01"},
		{"01/03/2026", false, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/?date="+tt.raw, nil)
		got, ok := queryDate(rec, req, "date")
		assert.Equal(t, tt.ok, ok, tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, got.Format("2006-01-02"), tt.raw)
		} else {
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestDecodeJSON_RejectsGarbage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Body = http.NoBody

	var v map[string]any
	assert.False(t, decodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
