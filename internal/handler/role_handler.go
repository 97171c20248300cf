package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"user-service/internal/model"
	"user-service/internal/service"
	"user-service/pkg/apierror"
)

type RoleHandler struct {
	service *service.RoleService
}

func NewRoleHandler(service *service.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New(http.StatusBadRequest, "invalid JSON body"))
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, err)
		return
	}

	role, err := h.service.CreateRole(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "role created successfully",
		"role":    role,
	})
}

func (h *RoleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")

	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "role assigned successfully"})
}

func (h *RoleHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")

	if err := h.service.RemoveRole(r.Context(), userID, roleID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "role removed successfully"})
}
