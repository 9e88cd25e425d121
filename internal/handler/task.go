// internal/handler/task.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type ReorderRequest struct {
	Tasks []repository.TaskPosition `json:"tasks"`
}

func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/reorder", h.Reorder)
	r.Get("/statistics", h.Statistics)
	r.Get("/category/{slug}", h.ByCategory)
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Post("/initialize", h.InitializeSystemCategories)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
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
	tasks, err := h.service.List(r.Context(), t, repository.TaskFilter{
		CategoryID: categoryID,
		Status:     model.TaskStatus(q.Get("status")),
		Priority:   model.TaskPriority(q.Get("priority")),
		AssignedTo: assignee,
		Search:     q.Get("search"),
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	tasks, err := h.service.ByCategory(r.Context(), t, chi.URLParam(r, "slug"))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.CreateTaskInput
	if !decodeJSON(w, r, &input) {
		return
	}

	task, err := h.service.Create(r.Context(), t, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.UpdateTaskInput
	if !decodeJSON(w, r, &input) {
		return
	}

	task, err := h.service.Update(r.Context(), t, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// Reorder applies a drag-and-drop batch of positions
func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Reorder(r.Context(), t, req.Tasks); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *TaskHandler) Statistics(w http.ResponseWriter, r *http.Request) {
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

func (h *TaskHandler) InitializeSystemCategories(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	created, err := h.service.InitializeSystemCategories(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, created)
}

func (h *TaskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
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

func (h *TaskHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.TaskCategoryInput
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

func (h *TaskHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.UpdateTaskCategoryInput
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

func (h *TaskHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
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
