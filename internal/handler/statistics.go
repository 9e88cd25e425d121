// internal/handler/statistics.go
package handler

import (
	"net/http"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type StatisticsHandler struct {
	service *service.StatisticsService
}

func NewStatisticsHandler(service *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

type GenerateStatisticsRequest struct {
	Date *time.Time `json:"date"`
}

func (h *StatisticsHandler) Routes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/history", h.History)
	r.Post("/generate", h.Generate)
	r.Get("/", h.Get)
}

func (h *StatisticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	dashboard, err := h.service.Dashboard(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}

// Get returns the snapshot for ?date=YYYY-MM-DD, today by default
func (h *StatisticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}

	stat, err := h.service.Get(r.Context(), t, date)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stat)
}

func (h *StatisticsHandler) History(w http.ResponseWriter, r *http.Request) {
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

	history, err := h.service.History(r.Context(), t, from, to)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

func (h *StatisticsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var req GenerateStatisticsRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	stat, err := h.service.Generate(r.Context(), t, date)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stat)
}
