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

// PropertyConfigHandler serves a user's ordering and visibility view over a
// dealership's property registry.
type PropertyConfigHandler struct {
	configs    db.PropertyConfigCollection
	properties db.PropertyCollection
}

// NewPropertyConfigHandler creates a new property config handler
func NewPropertyConfigHandler(configs db.PropertyConfigCollection, properties db.PropertyCollection) *PropertyConfigHandler {
	return &PropertyConfigHandler{
		configs:    configs,
		properties: properties,
	}
}

// Get returns the caller's config for the dealership with every order entry
// resolved to its property document. Entries referencing a property deleted
// since the last fan-out pass are dropped from the response instead of failing
// it.
func (h *PropertyConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	config, err := h.configs.FindConfigByUserAndDealership(r.Context(), dealershipID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	properties, err := h.properties.FindActiveProperties(r.Context(), dealershipID)
	if err != nil {
		writeError(w, err)
		return
	}

	active := make(map[primitive.ObjectID]models.Property, len(properties))
	for _, property := range properties {
		active[property.ID] = property
	}

	resolved := models.ResolvedPropertyConfig{
		ID:              config.ID,
		AccountID:       config.AccountID,
		DealershipID:    config.DealershipID,
		UserID:          config.UserID,
		PropertyOrder:   []models.ResolvedOrderEntry{},
		PropertyGroupBy: config.PropertyGroupBy,
	}
	for _, entry := range config.PropertyOrder {
		property, ok := active[entry.PropertyID]
		if !ok {
			continue
		}
		resolved.PropertyOrder = append(resolved.PropertyOrder, models.ResolvedOrderEntry{
			Property: property,
			Visible:  entry.Visible,
		})
	}

	writeJSON(w, http.StatusOK, resolved)
}

// updateOrderRequest is the payload of UpdateOrder.
type updateOrderRequest struct {
	PropertyOrder   []models.PropertyOrderEntry `json:"property_order"`
	PropertyGroupBy *models.PropertyGroupBy     `json:"property_group_by_ids"`
}

// UpdateOrder replaces the caller's ordering and visibility wholesale.
func (h *PropertyConfigHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
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

	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PropertyOrder == nil {
		writeError(w, apperr.Validationf("property_order is required."))
		return
	}

	seen := make(map[primitive.ObjectID]bool, len(req.PropertyOrder))
	for _, entry := range req.PropertyOrder {
		if entry.PropertyID.IsZero() {
			writeError(w, apperr.Validationf("property_order entries require a property_id."))
			return
		}
		if seen[entry.PropertyID] {
			writeError(w, apperr.Validationf("property_order references property %s more than once.", entry.PropertyID.Hex()))
			return
		}
		seen[entry.PropertyID] = true
	}

	config, err := h.configs.FindConfigByUserAndDealership(r.Context(), dealershipID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.configs.UpdateOrder(r.Context(), config.ID.Hex(), req.PropertyOrder, req.PropertyGroupBy)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
