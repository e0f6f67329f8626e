package handlers

import (
	"net/http"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/middleware"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleHandler creates roles scoped to a dealership.
type RoleHandler struct {
	roles db.RoleCollection
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roles db.RoleCollection) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// roleRequest is the payload of create. Grants are flat "<action>_<resource>"
// strings, expanded into the full permission matrix.
type roleRequest struct {
	Title  string   `json:"title"`
	Grants []string `json:"grants"`
}

// Create adds a role to the dealership.
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorizedf("User context not found."))
		return
	}

	dealershipID := chi.URLParam(r, "dealershipId")
	if !claims.AllowsDealership(dealershipID) {
		writeError(w, apperr.Unauthorizedf("You do not have access to dealership %s.", dealershipID))
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Title == "" {
		writeError(w, apperr.Validationf("Title is required."))
		return
	}

	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		writeError(w, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID))
		return
	}
	accountOID, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		writeError(w, apperr.Validationf("Account ID %s is not a valid ObjectId.", claims.AccountID))
		return
	}

	now := models.NowMillis()
	role := models.Role{
		ID:             primitive.NewObjectID(),
		AccountID:      accountOID,
		DealershipID:   dealershipOID,
		Title:          req.Title,
		Permissions:    models.BuildPermissions(req.Grants),
		CreationTime:   now,
		LastUpdateTime: now,
	}

	if err := h.roles.InsertRole(r.Context(), role); err != nil {
		writeError(w, apperr.Persistence("failed to create role", err))
		return
	}

	writeJSON(w, http.StatusCreated, role)
}
