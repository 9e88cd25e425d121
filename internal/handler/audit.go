// internal/handler/audit.go
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) Routes(r chi.Router) {
	r.Get("/", h.History)
	r.Post("/", h.Create)
	r.Get("/next", h.Next)
	r.Get("/upcoming", h.Upcoming)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/complete", h.Complete)
}

// Next returns the earliest scheduled audit from today on
func (h *AuditHandler) Next(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	audit, err := h.service.Next(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, audit)
}

func (h *AuditHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	audits, err := h.service.Upcoming(r.Context(), t, limit)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, audits)
}

func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	from, ok := queryDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryDate(w, r, "to")
	if !ok {
		return
	}

	q := r.URL.Query()
	audits, err := h.service.History(r.Context(), t, repository.AuditFilter{
		Status: model.AuditStatus(q.Get("status")),
		Type:   model.AuditType(q.Get("type")),
		Result: model.AuditResult(q.Get("result")),
		From:   from,
		To:     to,
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, audits)
}

func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	audit, err := h.service.Get(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, audit)
}

func (h *AuditHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.CreateAuditInput
	if !decodeJSON(w, r, &input) {
		return
	}

	audit, err := h.service.Create(r.Context(), t, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, audit)
}

func (h *AuditHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.UpdateAuditInput
	if !decodeJSON(w, r, &input) {
		return
	}

	audit, err := h.service.Update(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, audit)
}

// Complete takes either a JSON body or a multipart form carrying the report
// file in its "report" part.
func (h *AuditHandler) Complete(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.CompleteAuditInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if input, ok = completionForm(w, r); !ok {
			return
		}
	} else if !decodeJSON(w, r, &input) {
		return
	}

	audit, err := h.service.Complete(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, audit)
}

func (h *AuditHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func completionForm(w http.ResponseWriter, r *http.Request) (service.CompleteAuditInput, bool) {
	filename, data, ok := readUpload(w, r, "report")
	if !ok {
		return service.CompleteAuditInput{}, false
	}

	input := service.CompleteAuditInput{
		Result:          r.FormValue("result"),
		ReportReference: r.FormValue("report_reference"),
		ReportFile:      data,
		ReportFilename:  filename,
		Observations:    r.FormValue("observations"),
		Recommendations: r.FormValue("recommendations"),
	}
	if raw := r.FormValue("score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid score")
			return service.CompleteAuditInput{}, false
		}
		input.Score = &score
	}
	if raw := r.FormValue("completion_date"); raw != "" {
		d, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			if d, err = time.Parse(time.DateOnly, raw); err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid completion_date")
				return service.CompleteAuditInput{}, false
			}
		}
		input.CompletionDate = &d
	}
	return input, true
}
