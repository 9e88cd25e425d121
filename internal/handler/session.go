// internal/handler/session.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/qualitrack/internal/service"
)

type SessionHandler struct {
	service *service.SessionService
}

func NewSessionHandler(service *service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// LoginHandler exchanges email and password for a bearer token
func (h *SessionHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.service.Login(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}
