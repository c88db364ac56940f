package role

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/stocklane/inventory-management/internal/transport"
	"github.com/stocklane/inventory-management/internal/user"
)

type ServiceAPI interface {
	GetAllRoles() ([]user.Role, error)
	GetRoleByID(id int64) (*user.Role, error)
	GetAllPermissions() ([]user.Permission, error)
	UpdateRolePermissions(roleID int64, permissionIDs []int64) (*user.Role, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
	}
}

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.GetAllRoles()
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

// GetRole handles GET /roles/{id}
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	role, err := h.Service.GetRoleByID(id)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

// ListPermissions handles GET /permissions
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.GetAllPermissions()
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

// UpdateRolePermissions handles PUT /roles/{id}/permissions
func (h *Handler) UpdateRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var dto UpdatePermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.Service.UpdateRolePermissions(id, dto.PermissionIDs)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return 0, false
	}
	return id, true
}
