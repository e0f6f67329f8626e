package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleStatus enumerates the lifecycle states of a vehicle on the lot.
type VehicleStatus string

const (
	StatusInStock    VehicleStatus = "IN_STOCK"
	StatusSold       VehicleStatus = "SOLD"
	StatusPrepping   VehicleStatus = "PREPPING"
	StatusInRepair   VehicleStatus = "IN_REPAIR"
	StatusInDelivery VehicleStatus = "IN_DELIVERY"
	StatusDelivered  VehicleStatus = "DELIVERED"
)

// IsValidVehicleStatus checks if a status is part of the enum.
func IsValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case StatusInStock, StatusSold, StatusPrepping, StatusInRepair, StatusInDelivery, StatusDelivered:
		return true
	default:
		return false
	}
}

// VIN length bounds. Vehicles manufactured before 1981 can carry short VINs.
const (
	VINMinLength = 11
	VINMaxLength = 17
)

// VehicleLocation is an optional position of a vehicle within a dealership zone.
type VehicleLocation struct {
	LocationID *primitive.ObjectID `bson:"location_id,omitempty" json:"location_id,omitempty"`
	Latitude   float64             `bson:"latitude" json:"latitude"`
	Longitude  float64             `bson:"longitude" json:"longitude"`
}

// PropertySnapshot is the per-vehicle echo of a registry property: the label and
// input type copied at assignment time plus a client-owned value. The value is
// opaque to the backend. Label and input type are not re-synchronized when the
// registry property is updated.
type PropertySnapshot struct {
	Label     string      `bson:"label" json:"label"`
	Value     interface{} `bson:"value" json:"value"`
	InputType InputType   `bson:"input_type" json:"input_type"`
}

// Vehicle is a unit of inventory belonging to a dealership. Its properties map
// is keyed by the dealership's active property keys.
type Vehicle struct {
	ID             primitive.ObjectID               `bson:"_id,omitempty" json:"id"`
	DealershipID   primitive.ObjectID               `bson:"dealership_id" json:"dealership_id"`
	VIN            string                           `bson:"vin" json:"vin"`
	OnRoadSince    *time.Time                       `bson:"on_road_since" json:"on_road_since"`
	Status         VehicleStatus                    `bson:"status" json:"status"`
	Location       *VehicleLocation                 `bson:"location" json:"location"`
	Properties     map[PropertyKey]PropertySnapshot `bson:"properties" json:"properties"`
	CreationTime   int64                            `bson:"creation_time" json:"creation_time"`
	LastUpdateTime int64                            `bson:"last_update_time" json:"last_update_time"`
	DeletionTime   *int64                           `bson:"deletion_time" json:"deletion_time"`
}
