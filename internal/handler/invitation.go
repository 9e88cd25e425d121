// internal/handler/invitation.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/go-chi/chi/v5"
)

type InvitationHandler struct {
	service *service.InvitationService
}

func NewInvitationHandler(service *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{service: service}
}

// Routes mounts the endpoints that need an authenticated organization.
func (h *InvitationHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Invite)
	r.Post("/{id}/revoke", h.Revoke)
	r.Post("/{id}/resend", h.Resend)
}

// PublicRoutes mounts the endpoints an invitee reaches with only a token.
func (h *InvitationHandler) PublicRoutes(r chi.Router) {
	r.Get("/{token}", h.Lookup)
	r.Post("/accept", h.Accept)
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	invitations, err := h.service.List(r.Context(), t, model.InvitationStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, invitations)
}

func (h *InvitationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	var input service.InviteInput
	if !decodeJSON(w, r, &input) {
		return
	}

	invitation, err := h.service.Invite(r.Context(), t, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, invitation)
}

func (h *InvitationHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	lookup, err := h.service.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lookup)
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var input service.AcceptInvitationInput
	if !decodeJSON(w, r, &input) {
		return
	}

	accepted, err := h.service.Accept(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, accepted)
}

func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	invitation, err := h.service.Revoke(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, invitation)
}

func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	invitation, err := h.service.Resend(r.Context(), t, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, invitation)
}
