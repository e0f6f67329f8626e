package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DealershipNameMaxLength bounds dealership display names.
const DealershipNameMaxLength = 50

// Dealership is a physical location under an account. It owns its own property
// registry and vehicles. The geocoded address is supplied by the caller; the
// backend does not geocode.
type Dealership struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID        primitive.ObjectID `bson:"account_id" json:"account_id"`
	Name             string             `bson:"name" json:"name"`
	GeocodedAddress  bson.M             `bson:"geocoded_address" json:"geocoded_address"`
	FormattedAddress string             `bson:"formatted_address" json:"formatted_address"`
	Latitude         float64            `bson:"latitude" json:"latitude"`
	Longitude        float64            `bson:"longitude" json:"longitude"`
	CreationTime     int64              `bson:"creation_time" json:"creation_time"`
	LastUpdateTime   int64              `bson:"last_update_time" json:"last_update_time"`
	DeletionTime     *int64             `bson:"deletion_time" json:"deletion_time"`
}
