package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Domain length bounds for accounts.
const (
	DomainMinLength = 5
	DomainMaxLength = 50
)

// Account is the top-level tenant boundary: a dealer group or company
// identified by a unique, upper-cased domain.
type Account struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Domain         string             `bson:"domain" json:"domain"`
	Enabled        bool               `bson:"enabled" json:"enabled"`
	CreationTime   int64              `bson:"creation_time" json:"creation_time"`
	LastUpdateTime int64              `bson:"last_update_time" json:"last_update_time"`
}

// NowMillis returns the current time as epoch milliseconds, the timestamp
// representation used across all persisted documents.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
