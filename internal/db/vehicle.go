package db

import (
	"context"
	"fmt"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// VehicleCollection defines the interface for vehicle inventory operations.
// SetVehicleProperty and UnsetVehicleProperty are idempotent fan-out writes.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindActiveVehicles(ctx context.Context, dealershipID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, dealershipID, vehicleID string) (*models.Vehicle, error)
	ActiveVINExists(ctx context.Context, vin string, excludeID string) (bool, error)
	UpdateVehicle(ctx context.Context, dealershipID, vehicleID string, vehicle models.Vehicle) error
	SoftDeleteVehicle(ctx context.Context, dealershipID, vehicleID string) error
	SetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey, snapshot models.PropertySnapshot) error
	UnsetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey) error
}

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return err
}

// FindActiveVehicles returns the non-deleted vehicles of a dealership.
func (c *MongoVehicleCollection) FindActiveVehicles(ctx context.Context, dealershipID string) ([]models.Vehicle, error) {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return nil, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}

	cursor, err := c.Collection.Find(ctx, bson.M{
		"dealership_id": dealershipOID,
		"deletion_time": nil,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a non-deleted vehicle scoped to a dealership.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, dealershipID, vehicleID string) (*models.Vehicle, error) {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return nil, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}
	vehicleOID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return nil, apperr.Validationf("Vehicle ID %s is not a valid ObjectId.", vehicleID)
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{
		"_id":           vehicleOID,
		"dealership_id": dealershipOID,
		"deletion_time": nil,
	}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("Vehicle with id %s not found.", vehicleID)
		}
		return nil, err
	}
	return &vehicle, nil
}

// ActiveVINExists reports whether another active vehicle already carries the VIN.
func (c *MongoVehicleCollection) ActiveVINExists(ctx context.Context, vin string, excludeID string) (bool, error) {
	filter := bson.M{
		"vin":           vin,
		"deletion_time": nil,
	}
	if excludeID != "" {
		excludeOID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return false, apperr.Validationf("Vehicle ID %s is not a valid ObjectId.", excludeID)
		}
		filter["_id"] = bson.M{"$ne": excludeOID}
	}

	count, err := c.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateVehicle applies a full field replacement to an active vehicle.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, dealershipID, vehicleID string, vehicle models.Vehicle) error {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}
	vehicleOID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return apperr.Validationf("Vehicle ID %s is not a valid ObjectId.", vehicleID)
	}

	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": vehicleOID, "dealership_id": dealershipOID, "deletion_time": nil},
		bson.M{"$set": bson.M{
			"vin":              vehicle.VIN,
			"on_road_since":    vehicle.OnRoadSince,
			"status":           vehicle.Status,
			"location":         vehicle.Location,
			"properties":       vehicle.Properties,
			"last_update_time": models.NowMillis(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperr.NotFoundf("Vehicle with id %s was unable to be updated.", vehicleID)
	}
	return nil
}

// SoftDeleteVehicle stamps a deletion time on an active vehicle.
func (c *MongoVehicleCollection) SoftDeleteVehicle(ctx context.Context, dealershipID, vehicleID string) error {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}
	vehicleOID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return apperr.Validationf("Vehicle ID %s is not a valid ObjectId.", vehicleID)
	}

	now := models.NowMillis()
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": vehicleOID, "dealership_id": dealershipOID, "deletion_time": nil},
		bson.M{"$set": bson.M{"deletion_time": now, "last_update_time": now}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperr.NotFoundf("Vehicle with id %s was unable to be deleted.", vehicleID)
	}
	return nil
}

// SetVehicleProperty inserts a properties-map entry under the key. The filter
// skips vehicles that already have the entry so a retry cannot clobber a value
// a client wrote in the meantime.
func (c *MongoVehicleCollection) SetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey, snapshot models.PropertySnapshot) error {
	field := fmt.Sprintf("properties.%s", key)
	_, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": vehicleID, field: bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			field:              snapshot,
			"last_update_time": models.NowMillis(),
		}},
	)
	return err
}

// UnsetVehicleProperty removes the properties-map entry under the key.
// Unsetting an absent entry is a no-op.
func (c *MongoVehicleCollection) UnsetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey) error {
	field := fmt.Sprintf("properties.%s", key)
	_, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": vehicleID},
		bson.M{
			"$unset": bson.M{field: ""},
			"$set":   bson.M{"last_update_time": models.NowMillis()},
		},
	)
	return err
}
