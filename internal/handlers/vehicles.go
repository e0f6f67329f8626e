package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/middleware"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleHandler manages a dealership's vehicle inventory.
type VehicleHandler struct {
	vehicles   db.VehicleCollection
	properties db.PropertyCollection
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicles db.VehicleCollection, properties db.PropertyCollection) *VehicleHandler {
	return &VehicleHandler{
		vehicles:   vehicles,
		properties: properties,
	}
}

// vehicleRequest is the payload of create and update.
type vehicleRequest struct {
	VIN         string                                         `json:"vin"`
	OnRoadSince *time.Time                                     `json:"on_road_since"`
	Status      models.VehicleStatus                           `json:"status"`
	Location    *models.VehicleLocation                        `json:"location"`
	Properties  map[models.PropertyKey]models.PropertySnapshot `json:"properties"`
}

func (req *vehicleRequest) validate() error {
	if len(req.VIN) < models.VINMinLength || len(req.VIN) > models.VINMaxLength {
		return apperr.Validationf("VIN must be between %d and %d characters.", models.VINMinLength, models.VINMaxLength)
	}
	if req.Status != "" && !models.IsValidVehicleStatus(req.Status) {
		return apperr.Validationf("Status '%s' is not supported.", req.Status)
	}
	return nil
}

// seedProperties reports whether newly created vehicles are pre-filled with
// empty snapshots for every active property. Off by default: the fan-out pass
// of the next registry mutation fills them anyway, and an unseeded map keeps
// creation cheap on property-heavy dealerships.
func seedProperties() bool {
	return os.Getenv("VEHICLE_SEED_PROPERTIES") == "true"
}

// Create adds a vehicle to the dealership's inventory.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	exists, err := h.vehicles.ActiveVINExists(r.Context(), req.VIN, "")
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeError(w, apperr.Conflictf("A vehicle with VIN '%s' already exists.", req.VIN))
		return
	}

	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		writeError(w, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID))
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusInStock
	}
	properties := req.Properties
	if properties == nil {
		properties = make(map[models.PropertyKey]models.PropertySnapshot)
	}

	if seedProperties() {
		registry, err := h.properties.FindActiveProperties(r.Context(), dealershipID)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, property := range registry {
			if _, ok := properties[property.Key]; !ok {
				properties[property.Key] = property.Snapshot()
			}
		}
	}

	now := models.NowMillis()
	vehicle := models.Vehicle{
		ID:             primitive.NewObjectID(),
		DealershipID:   dealershipOID,
		VIN:            req.VIN,
		OnRoadSince:    req.OnRoadSince,
		Status:         status,
		Location:       req.Location,
		Properties:     properties,
		CreationTime:   now,
		LastUpdateTime: now,
	}

	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		writeError(w, apperr.Persistence("failed to create vehicle", err))
		return
	}

	writeJSON(w, http.StatusCreated, vehicle)
}

// List returns the active vehicles of the dealership.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	vehicles, err := h.vehicles.FindActiveVehicles(r.Context(), dealershipID)
	if err != nil {
		writeError(w, err)
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Get returns a single active vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), dealershipID, chi.URLParam(r, "vehicleId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// Update replaces the mutable fields of a vehicle, the properties map included.
// Clients own snapshot values; the backend stores them opaquely.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	vehicleID := chi.URLParam(r, "vehicleId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), dealershipID, vehicleID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	if req.VIN != vehicle.VIN {
		exists, err := h.vehicles.ActiveVINExists(r.Context(), req.VIN, vehicleID)
		if err != nil {
			writeError(w, err)
			return
		}
		if exists {
			writeError(w, apperr.Conflictf("A vehicle with VIN '%s' already exists.", req.VIN))
			return
		}
	}

	vehicle.VIN = req.VIN
	vehicle.OnRoadSince = req.OnRoadSince
	if req.Status != "" {
		vehicle.Status = req.Status
	}
	vehicle.Location = req.Location
	if req.Properties != nil {
		vehicle.Properties = req.Properties
	}

	if err := h.vehicles.UpdateVehicle(r.Context(), dealershipID, vehicleID, *vehicle); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}

// Delete soft-deletes a vehicle.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dealershipID := chi.URLParam(r, "dealershipId")
	if err := h.requireDealership(r, dealershipID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.vehicles.SoftDeleteVehicle(r.Context(), dealershipID, chi.URLParam(r, "vehicleId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vehicle deleted."})
}

func (h *VehicleHandler) requireDealership(r *http.Request, dealershipID string) error {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return apperr.Unauthorizedf("User context not found.")
	}
	if !claims.AllowsDealership(dealershipID) {
		return apperr.Unauthorizedf("You do not have access to dealership %s.", dealershipID)
	}
	return nil
}
