package handlers

import (
	"net/http"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DealershipHandler manages the dealership directory of an account.
type DealershipHandler struct {
	dealerships db.DealershipCollection
	users       db.UserCollection
	configs     db.PropertyConfigCollection
}

// NewDealershipHandler creates a new dealership handler
func NewDealershipHandler(dealerships db.DealershipCollection, users db.UserCollection, configs db.PropertyConfigCollection) *DealershipHandler {
	return &DealershipHandler{
		dealerships: dealerships,
		users:       users,
		configs:     configs,
	}
}

// dealershipRequest is the payload of create.
type dealershipRequest struct {
	Name             string  `json:"name"`
	GeocodedAddress  bson.M  `json:"geocoded_address"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Create adds a dealership to the account. Every account admin is granted
// access and gets an empty property config; the new registry has no properties
// yet.
func (h *DealershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	claims, err := requireAccount(r, accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req dealershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" || len(req.Name) > models.DealershipNameMaxLength {
		writeError(w, apperr.Validationf("Name must be between 1 and %d characters.", models.DealershipNameMaxLength))
		return
	}

	exists, err := h.dealerships.NameExists(r.Context(), accountID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeError(w, apperr.Conflictf("A dealership named '%s' already exists.", req.Name))
		return
	}

	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		writeError(w, apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID))
		return
	}

	now := models.NowMillis()
	dealership := models.Dealership{
		ID:               primitive.NewObjectID(),
		AccountID:        accountOID,
		Name:             req.Name,
		GeocodedAddress:  req.GeocodedAddress,
		FormattedAddress: req.FormattedAddress,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		CreationTime:     now,
		LastUpdateTime:   now,
	}

	if err := h.dealerships.InsertDealership(r.Context(), dealership); err != nil {
		writeError(w, apperr.Persistence("failed to create dealership", err))
		return
	}

	admins, err := h.users.FindActiveAdminsByAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	configs := make([]models.PropertyConfig, 0, len(admins))
	for _, admin := range admins {
		if err := h.users.AddAllowedDealership(r.Context(), admin.ID, dealership.ID); err != nil {
			writeError(w, apperr.Persistence("failed to grant dealership access", err))
			return
		}
		configs = append(configs, models.PropertyConfig{
			ID:             primitive.NewObjectID(),
			AccountID:      accountOID,
			DealershipID:   dealership.ID,
			UserID:         admin.ID,
			PropertyOrder:  []models.PropertyOrderEntry{},
			CreationTime:   now,
			LastUpdateTime: now,
		})
	}
	if err := h.configs.InsertConfigs(r.Context(), configs); err != nil {
		writeError(w, apperr.Persistence("failed to seed property configs", err))
		return
	}

	log.WithFields(log.Fields{
		"account_id":    claims.AccountID,
		"dealership_id": dealership.ID.Hex(),
	}).Info("Dealership created")

	writeJSON(w, http.StatusCreated, dealership)
}

// List returns the active dealerships of the account.
func (h *DealershipHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	if _, err := requireAccount(r, accountID); err != nil {
		writeError(w, err)
		return
	}

	dealerships, err := h.dealerships.FindActiveDealerships(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	if dealerships == nil {
		dealerships = []models.Dealership{}
	}
	writeJSON(w, http.StatusOK, dealerships)
}

// Get returns a single active dealership of the account.
func (h *DealershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	if _, err := requireAccount(r, accountID); err != nil {
		writeError(w, err)
		return
	}

	dealership, err := h.dealerships.FindActiveDealershipByID(r.Context(), chi.URLParam(r, "dealershipId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if dealership.AccountID.Hex() != accountID {
		writeError(w, apperr.NotFoundf("Dealership '%s' not found.", chi.URLParam(r, "dealershipId")))
		return
	}
	writeJSON(w, http.StatusOK, dealership)
}
