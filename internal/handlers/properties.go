package handlers

import (
	"net/http"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/events"
	"github.com/autotracks/autotracks-api/internal/fanout"
	"github.com/autotracks/autotracks-api/internal/middleware"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyLabelMaxLength bounds property display labels.
const PropertyLabelMaxLength = 50

// PropertyHandler manages a dealership's property registry. Every mutation
// triggers a fan-out pass before the response is written, then emits a
// registry-change event so the reconciler can repair a crashed pass.
type PropertyHandler struct {
	properties db.PropertyCollection
	sync       *fanout.Synchronizer
	publisher  events.Publisher
}

// NewPropertyHandler creates a new property registry handler
func NewPropertyHandler(properties db.PropertyCollection, sync *fanout.Synchronizer, publisher events.Publisher) *PropertyHandler {
	return &PropertyHandler{
		properties: properties,
		sync:       sync,
		publisher:  publisher,
	}
}

// propertyRequest is the payload of create and update.
type propertyRequest struct {
	Label           string           `json:"label"`
	InputType       models.InputType `json:"input_type"`
	DropdownOptions []string         `json:"dropdown_options"`
	IsRequired      bool             `json:"is_required"`
}

func (req *propertyRequest) validate() error {
	if req.Label == "" {
		return apperr.Validationf("Label is required.")
	}
	if len(req.Label) > PropertyLabelMaxLength {
		return apperr.Validationf("Label must be at most %d characters.", PropertyLabelMaxLength)
	}
	if !models.IsValidInputType(req.InputType) {
		return apperr.Validationf("Input type '%s' is not supported.", req.InputType)
	}
	if req.InputType == models.InputTypeDropdown && len(req.DropdownOptions) == 0 {
		return apperr.Validationf("Dropdown properties require at least one option.")
	}
	return nil
}

// dropdownOptions returns the options to persist. Only dropdown properties
// carry options; any other input type stores null.
func (req *propertyRequest) dropdownOptions() []string {
	if req.InputType != models.InputTypeDropdown {
		return nil
	}
	return req.DropdownOptions
}

// Create defines a new property and propagates it into every property config
// and vehicle of the dealership.
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	key := models.DeriveKey(req.Label)
	if key == "" {
		writeError(w, apperr.Validationf("Label must contain at least one word."))
		return
	}

	exists, err := h.properties.ActiveKeyExists(r.Context(), dealershipID, key, "")
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeError(w, apperr.Conflictf("A property with key '%s' already exists.", key))
		return
	}

	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		writeError(w, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID))
		return
	}

	now := models.NowMillis()
	property := models.Property{
		ID:              primitive.NewObjectID(),
		DealershipID:    dealershipOID,
		Label:           req.Label,
		Key:             key,
		InputType:       req.InputType,
		DropdownOptions: req.dropdownOptions(),
		IsRequired:      req.IsRequired,
		CreationTime:    now,
		LastUpdateTime:  now,
	}

	if err := h.properties.InsertProperty(r.Context(), property); err != nil {
		writeError(w, apperr.Persistence("failed to create property", err))
		return
	}

	// The registry write is committed; a fan-out failure leaves the system
	// repairable by the reconciler rather than rolled back.
	if err := h.sync.Reconcile(r.Context(), dealershipID); err != nil {
		writeError(w, err)
		return
	}

	h.publisher.PublishRegistryChange(events.RegistryChange{
		DealershipID: dealershipID,
		PropertyID:   property.ID.Hex(),
		Change:       events.ChangePropertyCreated,
		OccurredAt:   models.NowMillis(),
	})

	writeJSON(w, http.StatusCreated, property)
}

// List returns the active properties of the dealership.
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	properties, err := h.properties.FindActiveProperties(r.Context(), dealershipID)
	if err != nil {
		writeError(w, err)
		return
	}
	if properties == nil {
		properties = []models.Property{}
	}
	writeJSON(w, http.StatusOK, properties)
}

// Get returns a single active property.
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	property, err := h.properties.FindPropertyByID(r.Context(), dealershipID, chi.URLParam(r, "propertyId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

// Update replaces a property definition, re-deriving the key from the new
// label. Existing vehicle snapshots and config entries are not rewritten as
// part of the request; a later fan-out pass converges them toward the
// registry.
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	propertyID := chi.URLParam(r, "propertyId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	property, err := h.properties.FindPropertyByID(r.Context(), dealershipID, propertyID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	key := models.DeriveKey(req.Label)
	if key == "" {
		writeError(w, apperr.Validationf("Label must contain at least one word."))
		return
	}

	exists, err := h.properties.ActiveKeyExists(r.Context(), dealershipID, key, propertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeError(w, apperr.Conflictf("A property with key '%s' already exists.", key))
		return
	}

	property.Label = req.Label
	property.Key = key
	property.InputType = req.InputType
	property.DropdownOptions = req.dropdownOptions()
	property.IsRequired = req.IsRequired

	if err := h.properties.UpdateProperty(r.Context(), propertyID, *property); err != nil {
		writeError(w, err)
		return
	}

	h.publisher.PublishRegistryChange(events.RegistryChange{
		DealershipID: dealershipID,
		PropertyID:   propertyID,
		Change:       events.ChangePropertyUpdated,
		OccurredAt:   models.NowMillis(),
	})

	writeJSON(w, http.StatusOK, property)
}

// Delete soft-deletes a property and removes it from every property config and
// vehicle of the dealership.
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	propertyID := chi.URLParam(r, "propertyId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.properties.FindPropertyByID(r.Context(), dealershipID, propertyID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.properties.SoftDeleteProperty(r.Context(), propertyID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.sync.Reconcile(r.Context(), dealershipID); err != nil {
		writeError(w, err)
		return
	}

	h.publisher.PublishRegistryChange(events.RegistryChange{
		DealershipID: dealershipID,
		PropertyID:   propertyID,
		Change:       events.ChangePropertyDeleted,
		OccurredAt:   models.NowMillis(),
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Property deleted."})
}

// requireDealership checks that the caller's token grants the dealership.
func (h *PropertyHandler) requireDealership(r *http.Request, dealershipID string) error {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return apperr.Unauthorizedf("User context not found.")
	}
	if !claims.AllowsDealership(dealershipID) {
		return apperr.Unauthorizedf("You do not have access to dealership %s.", dealershipID)
	}
	return nil
}
