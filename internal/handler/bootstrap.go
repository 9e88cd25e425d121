// internal/handler/bootstrap.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/qualitrack/internal/service"
)

type BootstrapHandler struct {
	service *service.BootstrapService
}

func NewBootstrapHandler(service *service.BootstrapService) *BootstrapHandler {
	return &BootstrapHandler{service: service}
}

// Initialize seeds the caller's organization once
func (h *BootstrapHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	result, err := h.service.Initialize(r.Context(), t)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}
