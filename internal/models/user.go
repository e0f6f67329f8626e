package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DisplayNameMaxLength bounds user display names.
const DisplayNameMaxLength = 100

// Preferences holds per-user UI settings.
type Preferences struct {
	Language string `bson:"language" json:"language"` // "EN" or "FR"
	Theme    string `bson:"theme" json:"theme"`       // "light" or "dark"
}

// DefaultPreferences returns the preferences assigned to new users.
func DefaultPreferences() Preferences {
	return Preferences{Language: "EN", Theme: "light"}
}

// User is a member of an account. Non-admin users carry a role and an active
// dealership; account admins are implicitly allowed into every dealership of
// the account.
type User struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AccountID            primitive.ObjectID   `bson:"account_id" json:"account_id"`
	ActiveDealershipID   *primitive.ObjectID  `bson:"active_dealership_id" json:"active_dealership_id"`
	AllowedDealershipIDs []primitive.ObjectID `bson:"allowed_dealership_ids" json:"allowed_dealership_ids"`
	DisplayName          string               `bson:"display_name" json:"display_name"`
	Email                string               `bson:"email" json:"email"`
	IsAccountAdmin       bool                 `bson:"is_account_admin" json:"is_account_admin"`
	RoleID               *primitive.ObjectID  `bson:"role_id" json:"role_id"`
	Preferences          Preferences          `bson:"preferences" json:"preferences"`
	Password             string               `bson:"password" json:"-"`
	CreationTime         int64                `bson:"creation_time" json:"creation_time"`
	LastUpdateTime       int64                `bson:"last_update_time" json:"last_update_time"`
	DeletionTime         *int64               `bson:"deletion_time" json:"deletion_time"`
}

// Claims is the authenticated principal carried by a JWT. The core trusts these
// fields as given; it does not issue or validate credentials beyond the token.
type Claims struct {
	UserID               string   `json:"user_id"`
	AccountID            string   `json:"account_id"`
	DisplayName          string   `json:"display_name"`
	Email                string   `json:"email"`
	ActiveDealershipID   string   `json:"active_dealership_id"`
	AllowedDealershipIDs []string `json:"allowed_dealership_ids"`
	IsAccountAdmin       bool     `json:"is_account_admin"`
	RoleID               string   `json:"role_id"`
	Exp                  int64    `json:"exp"`
}

// AllowsDealership reports whether the principal may act on the dealership.
func (c *Claims) AllowsDealership(dealershipID string) bool {
	if c.IsAccountAdmin {
		return true
	}
	for _, id := range c.AllowedDealershipIDs {
		if id == dealershipID {
			return true
		}
	}
	return false
}

// SignInRequest is the credentials payload of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse is the successful sign-in payload.
type SignInResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
