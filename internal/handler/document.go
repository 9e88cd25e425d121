// internal/handler/document.go
package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipart bodies carry up to a 50MB file plus form fields
const maxUploadBody = 51 << 20

type DocumentHandler struct {
	service *service.DocumentService
}

func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

type IndicatorIDsRequest struct {
	IndicatorIDs []uuid.UUID `json:"indicator_ids"`
}

type URLResponse struct {
	BaseResponse
	URL string `json:"url"`
}

func (h *DocumentHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/upload", h.Upload)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/url", h.URL)
	r.Put("/{id}/file", h.ReplaceFile)
	r.Put("/{id}/indicators", h.Associate)
	r.Post("/{id}/indicators", h.Attach)
	r.Delete("/{id}/indicators/{indicatorID}", h.Detach)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	page, ok := queryPage(w, r)
	if !ok {
		return
	}
	indicatorID, ok := queryUUID(w, r, "indicator_id")
	if !ok {
		return
	}

	q := r.URL.Query()
	docs, err := h.service.List(r.Context(), t, repository.DocumentFilter{
		Type:        model.DocumentType(q.Get("type")),
		IndicatorID: indicatorID,
		Category:    q.Get("category"),
		Search:      q.Get("search"),
	}, page)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, docs)
}

// Create records a document whose file already lives elsewhere
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.CreateDocumentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	doc, err := h.service.Create(r.Context(), t, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, doc)
}

// Upload accepts multipart/form-data with a "file" part
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	filename, data, ok := readUpload(w, r, "file")
	if !ok {
		return
	}
	indicatorIDs, ok := formUUIDs(w, r, "indicator_ids")
	if !ok {
		return
	}

	doc, err := h.service.Upload(r.Context(), t, service.UploadDocumentInput{
		Filename:     filename,
		Data:         data,
		Name:         r.FormValue("name"),
		Type:         r.FormValue("type"),
		Description:  r.FormValue("description"),
		Category:     r.FormValue("category"),
		IndicatorIDs: indicatorIDs,
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.UpdateDocumentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	doc, err := h.service.Update(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ReplaceFile(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	filename, data, ok := readUpload(w, r, "file")
	if !ok {
		return
	}

	doc, err := h.service.ReplaceFile(r.Context(), t, id, filename, data)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// Associate replaces the whole set of linked indicators
func (h *DocumentHandler) Associate(w http.ResponseWriter, r *http.Request) {
	h.changeIndicators(w, r, h.service.Associate)
}

// Attach adds indicators to the existing set
func (h *DocumentHandler) Attach(w http.ResponseWriter, r *http.Request) {
	h.changeIndicators(w, r, h.service.Attach)
}

func (h *DocumentHandler) Detach(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	indicatorID, ok := pathID(w, r, "indicatorID")
	if !ok {
		return
	}

	doc, err := h.service.Detach(r.Context(), t, id, indicatorID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *DocumentHandler) URL(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	url, err := h.service.URL(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, URLResponse{BaseResponse: BaseResponse{Ok: true}, URL: url})
}

type indicatorChange func(ctx context.Context, t domain.Tenant, id uuid.UUID, indicatorIDs []uuid.UUID) (*model.Document, error)

func (h *DocumentHandler) changeIndicators(w http.ResponseWriter, r *http.Request, change indicatorChange) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req IndicatorIDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := change(r.Context(), t, id, req.IndicatorIDs)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// readUpload reads one file part of a multipart request.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart payload")
		return "", nil, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing "+field)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unreadable "+field)
		return "", nil, false
	}
	return header.Filename, data, true
}

// formUUIDs accepts repeated fields or a single comma separated value.
func formUUIDs(w http.ResponseWriter, r *http.Request, field string) ([]uuid.UUID, bool) {
	var ids []uuid.UUID
	for _, value := range r.MultipartForm.Value[field] {
		for _, raw := range strings.Split(value, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid "+field)
				return nil, false
			}
			ids = append(ids, id)
		}
	}
	return ids, true
}
