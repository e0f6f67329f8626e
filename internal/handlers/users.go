package handlers

import (
	"net/http"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/auth"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/middleware"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler manages the members of an account.
type UserHandler struct {
	authService *auth.Service
	users       db.UserCollection
	configs     db.PropertyConfigCollection
	properties  db.PropertyCollection
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, users db.UserCollection, configs db.PropertyConfigCollection, properties db.PropertyCollection) *UserHandler {
	return &UserHandler{
		authService: authService,
		users:       users,
		configs:     configs,
		properties:  properties,
	}
}

// userRequest is the payload of create and update.
type userRequest struct {
	DisplayName          string              `json:"display_name"`
	Email                string              `json:"email"`
	Password             string              `json:"password"`
	IsAccountAdmin       bool                `json:"is_account_admin"`
	RoleID               *string             `json:"role_id"`
	AllowedDealershipIDs []string            `json:"allowed_dealership_ids"`
	Preferences          *models.Preferences `json:"preferences"`
}

// Create adds a user to the account and seeds a property config for every
// dealership the user is allowed into, pre-populated with the dealership's
// active properties in registry order, all visible.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	claims, err := requireAccount(r, accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.DisplayName == "" || len(req.DisplayName) > models.DisplayNameMaxLength {
		writeError(w, apperr.Validationf("Display name must be between 1 and %d characters.", models.DisplayNameMaxLength))
		return
	}
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		writeError(w, apperr.Validationf("%s", err.Error()))
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		writeError(w, apperr.Validationf("%s", err.Error()))
		return
	}

	emailTaken, err := h.users.EmailExists(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if emailTaken {
		writeError(w, apperr.Conflictf("A user with email '%s' already exists.", req.Email))
		return
	}

	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		writeError(w, apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID))
		return
	}

	allowed, err := parseObjectIDs(req.AllowedDealershipIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	var roleOID *primitive.ObjectID
	if req.RoleID != nil && *req.RoleID != "" {
		oid, err := primitive.ObjectIDFromHex(*req.RoleID)
		if err != nil {
			writeError(w, apperr.Validationf("Role ID %s is not a valid ObjectId.", *req.RoleID))
			return
		}
		roleOID = &oid
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperr.Persistence("failed to hash password", err))
		return
	}

	preferences := models.DefaultPreferences()
	if req.Preferences != nil {
		preferences = *req.Preferences
	}

	now := models.NowMillis()
	user := models.User{
		ID:                   primitive.NewObjectID(),
		AccountID:            accountOID,
		AllowedDealershipIDs: allowed,
		DisplayName:          req.DisplayName,
		Email:                req.Email,
		IsAccountAdmin:       req.IsAccountAdmin,
		RoleID:               roleOID,
		Preferences:          preferences,
		Password:             passwordHash,
		CreationTime:         now,
		LastUpdateTime:       now,
	}
	if len(allowed) > 0 {
		user.ActiveDealershipID = &allowed[0]
	}

	if err := h.users.InsertUser(r.Context(), user); err != nil {
		writeError(w, apperr.Persistence("failed to create user", err))
		return
	}

	if err := h.seedConfigs(r, user, allowed); err != nil {
		writeError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"account_id": claims.AccountID,
		"user_id":    user.ID.Hex(),
	}).Info("User created")

	writeJSON(w, http.StatusCreated, user)
}

// List returns the active users of the account. A dealershipId query parameter
// narrows the result to users allowed into that dealership.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	if _, err := requireAccount(r, accountID); err != nil {
		writeError(w, err)
		return
	}

	users, err := h.users.FindActiveUsersByAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	if dealershipID := r.URL.Query().Get("dealershipId"); dealershipID != "" {
		filtered := make([]models.User, 0, len(users))
		for _, user := range users {
			if user.IsAccountAdmin {
				filtered = append(filtered, user)
				continue
			}
			for _, id := range user.AllowedDealershipIDs {
				if id.Hex() == dealershipID {
					filtered = append(filtered, user)
					break
				}
			}
		}
		users = filtered
	}

	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get returns a single active user of the account.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	if _, err := requireAccount(r, accountID); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if user.AccountID.Hex() != accountID {
		writeError(w, apperr.NotFoundf("User with ID '%s' not found.", chi.URLParam(r, "userId")))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update edits a user's profile and grants. Newly allowed dealerships get a
// seeded property config; revoked dealerships keep their config for when the
// grant returns.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	userID := chi.URLParam(r, "userId")
	if _, err := requireAccount(r, accountID); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user.AccountID.Hex() != accountID {
		writeError(w, apperr.NotFoundf("User with ID '%s' not found.", userID))
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.DisplayName != "" {
		if len(req.DisplayName) > models.DisplayNameMaxLength {
			writeError(w, apperr.Validationf("Display name must be at most %d characters.", models.DisplayNameMaxLength))
			return
		}
		user.DisplayName = req.DisplayName
	}
	if req.Preferences != nil {
		user.Preferences = *req.Preferences
	}
	if req.RoleID != nil {
		if *req.RoleID == "" {
			user.RoleID = nil
		} else {
			oid, err := primitive.ObjectIDFromHex(*req.RoleID)
			if err != nil {
				writeError(w, apperr.Validationf("Role ID %s is not a valid ObjectId.", *req.RoleID))
				return
			}
			user.RoleID = &oid
		}
	}

	var added []primitive.ObjectID
	if req.AllowedDealershipIDs != nil {
		allowed, err := parseObjectIDs(req.AllowedDealershipIDs)
		if err != nil {
			writeError(w, err)
			return
		}

		existing := make(map[primitive.ObjectID]bool, len(user.AllowedDealershipIDs))
		for _, id := range user.AllowedDealershipIDs {
			existing[id] = true
		}
		for _, id := range allowed {
			if !existing[id] {
				added = append(added, id)
			}
		}
		user.AllowedDealershipIDs = allowed
	}

	if err := h.users.UpdateUser(r.Context(), userID, *user); err != nil {
		writeError(w, err)
		return
	}

	if len(added) > 0 {
		configs, err := h.configs.FindConfigsByAccountAndUser(r.Context(), accountID, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		hasConfig := make(map[primitive.ObjectID]bool, len(configs))
		for _, config := range configs {
			hasConfig[config.DealershipID] = true
		}
		missing := added[:0]
		for _, id := range added {
			if !hasConfig[id] {
				missing = append(missing, id)
			}
		}
		if err := h.seedConfigs(r, *user, missing); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, user)
}

// ActivateDealership switches the caller's active dealership and reissues the
// token with the new scope.
func (h *UserHandler) ActivateDealership(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorizedf("User context not found."))
		return
	}

	dealershipID := chi.URLParam(r, "dealershipId")

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	allowed := user.IsAccountAdmin
	for _, id := range user.AllowedDealershipIDs {
		if id.Hex() == dealershipID {
			allowed = true
			break
		}
	}
	if !allowed {
		writeError(w, apperr.Unauthorizedf("You do not have access to dealership %s.", dealershipID))
		return
	}

	updated, err := h.users.SetActiveDealership(r.Context(), claims.UserID, dealershipID)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.authService.GenerateToken(updated)
	if err != nil {
		writeError(w, apperr.Persistence("failed to generate token", err))
		return
	}

	writeJSON(w, http.StatusOK, models.SignInResponse{User: *updated, Token: token})
}

// seedConfigs inserts a property config per dealership, pre-filled with the
// dealership's active properties in registry order, all visible.
func (h *UserHandler) seedConfigs(r *http.Request, user models.User, dealershipIDs []primitive.ObjectID) error {
	if len(dealershipIDs) == 0 {
		return nil
	}

	now := models.NowMillis()
	configs := make([]models.PropertyConfig, 0, len(dealershipIDs))
	for _, dealershipID := range dealershipIDs {
		properties, err := h.properties.FindActiveProperties(r.Context(), dealershipID.Hex())
		if err != nil {
			return err
		}
		order := make([]models.PropertyOrderEntry, 0, len(properties))
		for _, property := range properties {
			order = append(order, models.PropertyOrderEntry{PropertyID: property.ID, Visible: true})
		}
		configs = append(configs, models.PropertyConfig{
			ID:             primitive.NewObjectID(),
			AccountID:      user.AccountID,
			DealershipID:   dealershipID,
			UserID:         user.ID,
			PropertyOrder:  order,
			CreationTime:   now,
			LastUpdateTime: now,
		})
	}

	if err := h.configs.InsertConfigs(r.Context(), configs); err != nil {
		return apperr.Persistence("failed to seed property configs", err)
	}
	return nil
}

// requireAccount checks that the caller belongs to the account in the path.
func requireAccount(r *http.Request, accountID string) (*models.Claims, error) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return nil, apperr.Unauthorizedf("User context not found.")
	}
	if claims.AccountID != accountID {
		return nil, apperr.Unauthorizedf("You do not have access to account %s.", accountID)
	}
	return claims, nil
}

// parseObjectIDs converts hex strings, rejecting the first malformed one.
func parseObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, apperr.Validationf("ID %s is not a valid ObjectId.", id)
		}
		out = append(out, oid)
	}
	return out, nil
}
