// internal/handler/action.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type ActionHandler struct {
	service *service.ActionService
}

func NewActionHandler(service *service.ActionService) *ActionHandler {
	return &ActionHandler{service: service}
}

func (h *ActionHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/overdue", h.Overdue)
	r.Get("/statistics", h.Statistics)
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	page, ok := queryPage(w, r)
	if !ok {
		return
	}
	categoryID, ok := queryUUID(w, r, "category_id")
	if !ok {
		return
	}
	assignee, ok := queryUUID(w, r, "assigned_to")
	if !ok {
		return
	}

	q := r.URL.Query()
	actions, err := h.service.List(r.Context(), t, repository.ActionFilter{
		CategoryID: categoryID,
		Priority:   model.ActionPriority(q.Get("priority")),
		Status:     model.ActionStatus(q.Get("status")),
		AssignedTo: assignee,
		Search:     q.Get("search"),
	}, page)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, actions)
}

func (h *ActionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	action, err := h.service.Get(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, action)
}

func (h *ActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.CreateActionInput
	if !decodeJSON(w, r, &input) {
		return
	}

	action, err := h.service.Create(r.Context(), t, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, action)
}

func (h *ActionHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.UpdateActionInput
	if !decodeJSON(w, r, &input) {
		return
	}

	action, err := h.service.Update(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, action)
}

func (h *ActionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *ActionHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	actions, err := h.service.Overdue(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, actions)
}

func (h *ActionHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	stats, err := h.service.Statistics(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ActionHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	categories, err := h.service.ListCategories(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *ActionHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.ActionCategoryInput
	if !decodeJSON(w, r, &input) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), t, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, category)
}

func (h *ActionHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.UpdateActionCategoryInput
	if !decodeJSON(w, r, &input) {
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory is refused while actions still reference the category
func (h *ActionHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), t, id); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}
