// internal/handler/indicator.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type IndicatorHandler struct {
	service *service.IndicatorService
}

func NewIndicatorHandler(service *service.IndicatorService) *IndicatorHandler {
	return &IndicatorHandler{service: service}
}

func (h *IndicatorHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/summary", h.Summary)
	r.Get("/by-category", h.ByCategory)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Get("/{id}/documents", h.ListDocuments)
}

// List returns the organization's indicators ordered by number
func (h *IndicatorHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	from, ok := queryInt(w, r, "number_from")
	if !ok {
		return
	}
	to, ok := queryInt(w, r, "number_to")
	if !ok {
		return
	}

	q := r.URL.Query()
	indicators, err := h.service.List(r.Context(), t, repository.IndicatorFilter{
		Status:     model.IndicatorStatus(q.Get("status")),
		Category:   q.Get("category"),
		NumberFrom: from,
		NumberTo:   to,
		Search:     q.Get("search"),
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, indicators)
}

func (h *IndicatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	indicator, err := h.service.Get(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, indicator)
}

func (h *IndicatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.UpdateIndicatorInput
	if !decodeJSON(w, r, &input) {
		return
	}

	indicator, err := h.service.Update(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, indicator)
}

func (h *IndicatorHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), t, id, model.DocumentType(r.URL.Query().Get("type")))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, docs)
}

func (h *IndicatorHandler) Summary(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *IndicatorHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	groups, err := h.service.ByCategory(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, groups)
}
