package handlers

import (
	"net/http"
	"strings"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/auth"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/middleware"
	"github.com/autotracks/autotracks-api/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles account registration and session endpoints.
type AuthHandler struct {
	authService *auth.Service
	accounts    db.AccountCollection
	users       db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, accounts db.AccountCollection, users db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		accounts:    accounts,
		users:       users,
	}
}

// registerRequest is the payload of account registration.
type registerRequest struct {
	Domain      string `json:"domain"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Register creates an account and its first admin user. There is no
// cross-collection transaction: if the user insert fails the fresh account is
// deleted again.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	domain := strings.ToUpper(strings.TrimSpace(req.Domain))
	if len(domain) < models.DomainMinLength || len(domain) > models.DomainMaxLength {
		writeError(w, apperr.Validationf("Domain must be between %d and %d characters.", models.DomainMinLength, models.DomainMaxLength))
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

	exists, err := h.accounts.DomainExists(r.Context(), domain)
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeError(w, apperr.Conflictf("An account with domain '%s' already exists.", domain))
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

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperr.Persistence("failed to hash password", err))
		return
	}

	now := models.NowMillis()
	account := models.Account{
		ID:             primitive.NewObjectID(),
		Domain:         domain,
		Enabled:        true,
		CreationTime:   now,
		LastUpdateTime: now,
	}
	if err := h.accounts.InsertAccount(r.Context(), account); err != nil {
		writeError(w, apperr.Persistence("failed to create account", err))
		return
	}

	admin := models.User{
		ID:             primitive.NewObjectID(),
		AccountID:      account.ID,
		DisplayName:    req.DisplayName,
		Email:          req.Email,
		IsAccountAdmin: true,
		Preferences:    models.DefaultPreferences(),
		Password:       passwordHash,
		CreationTime:   now,
		LastUpdateTime: now,
	}
	if err := h.users.InsertUser(r.Context(), admin); err != nil {
		if rollbackErr := h.accounts.DeleteAccount(r.Context(), account.ID.Hex()); rollbackErr != nil {
			log.WithError(rollbackErr).WithField("account_id", account.ID.Hex()).Error("Failed to roll back account after user insert failure")
		}
		writeError(w, apperr.Persistence("failed to create admin user", err))
		return
	}

	token, err := h.authService.GenerateToken(&admin)
	if err != nil {
		writeError(w, apperr.Persistence("failed to generate token", err))
		return
	}

	log.WithFields(log.Fields{
		"account_id": account.ID.Hex(),
		"domain":     domain,
	}).Info("Account registered")

	writeJSON(w, http.StatusCreated, models.SignInResponse{User: admin, Token: token})
}

// SignIn exchanges credentials for a JWT.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperr.Validationf("Email and password are required."))
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		// A missing user and a bad password are indistinguishable to the caller.
		writeError(w, apperr.Unauthorizedf("Invalid credentials."))
		return
	}

	if !h.authService.CheckPassword(req.Password, user.Password) {
		writeError(w, apperr.Unauthorizedf("Invalid credentials."))
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, apperr.Persistence("failed to generate token", err))
		return
	}

	writeJSON(w, http.StatusOK, models.SignInResponse{User: *user, Token: token})
}

// SignOut acknowledges a sign-out. Tokens are stateless; clients discard theirs.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out."})
}

// Verify returns the claims of a valid token, confirming the session.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorizedf("User context not found."))
		return
	}
	writeJSON(w, http.StatusOK, claims)
}
