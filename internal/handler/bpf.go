// internal/handler/bpf.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type BPFHandler struct {
	service *service.BPFService
}

func NewBPFHandler(service *service.BPFService) *BPFHandler {
	return &BPFHandler{service: service}
}

type UpdateBPFRequest struct {
	Data json.RawMessage `json:"data"`
}

func (h *BPFHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/archives", h.Archives)
	r.Get("/year/{year}", h.ByYear)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/export", h.Export)
}

func (h *BPFHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	reports, err := h.service.List(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reports)
}

func (h *BPFHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.CreateBPFInput
	if !decodeJSON(w, r, &input) {
		return
	}

	report, err := h.service.Create(r.Context(), t, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, report)
}

func (h *BPFHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.service.Get(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (h *BPFHandler) ByYear(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	report, err := h.service.ByYear(r.Context(), t, year)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Update replaces the payload of a draft
func (h *BPFHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateBPFRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.service.Update(r.Context(), t, id, req.Data)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (h *BPFHandler) Submit(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.SubmitBPFInput
	if !decodeJSON(w, r, &input) {
		return
	}

	report, err := h.service.Submit(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (h *BPFHandler) Archives(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	from, ok := queryInt(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryInt(w, r, "to")
	if !ok {
		return
	}

	archives, err := h.service.Archives(r.Context(), t, from, to)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, archives)
}

// Export renders the report in ?format=json|csv|pdf and stores the artifact
func (h *BPFHandler) Export(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.ExportJSON
	}

	export, err := h.service.Export(r.Context(), t, id, format)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, export)
}

func (h *BPFHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), t, id); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}
