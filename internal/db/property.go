package db

import (
	"context"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PropertyCollection defines the interface for property registry operations.
type PropertyCollection interface {
	InsertProperty(ctx context.Context, property models.Property) error
	FindPropertyByID(ctx context.Context, dealershipID, propertyID string) (*models.Property, error)
	FindActiveProperties(ctx context.Context, dealershipID string) ([]models.Property, error)
	ActiveKeyExists(ctx context.Context, dealershipID string, key models.PropertyKey, excludeID string) (bool, error)
	UpdateProperty(ctx context.Context, propertyID string, property models.Property) error
	SoftDeleteProperty(ctx context.Context, propertyID string) error
}

// MongoPropertyCollection implements PropertyCollection for MongoDB.
type MongoPropertyCollection struct {
	Collection *mongo.Collection
}

// InsertProperty inserts a property definition.
func (c *MongoPropertyCollection) InsertProperty(ctx context.Context, property models.Property) error {
	_, err := c.Collection.InsertOne(ctx, property)
	return err
}

// FindPropertyByID finds a non-deleted property scoped to a dealership.
func (c *MongoPropertyCollection) FindPropertyByID(ctx context.Context, dealershipID, propertyID string) (*models.Property, error) {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return nil, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}
	propertyOID, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return nil, apperr.Validationf("Property ID %s is not a valid ObjectId.", propertyID)
	}

	var property models.Property
	err = c.Collection.FindOne(ctx, bson.M{
		"_id":           propertyOID,
		"dealership_id": dealershipOID,
		"deletion_time": nil,
	}).Decode(&property)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("Property with ID '%s' not found.", propertyID)
		}
		return nil, err
	}
	return &property, nil
}

// FindActiveProperties returns the non-deleted properties of a dealership.
func (c *MongoPropertyCollection) FindActiveProperties(ctx context.Context, dealershipID string) ([]models.Property, error) {
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

	var properties []models.Property
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

// ActiveKeyExists reports whether another active property of the dealership
// already uses the key. excludeID, when non-empty, skips the property being
// updated.
func (c *MongoPropertyCollection) ActiveKeyExists(ctx context.Context, dealershipID string, key models.PropertyKey, excludeID string) (bool, error) {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return false, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}

	filter := bson.M{
		"dealership_id": dealershipOID,
		"key":           key,
		"deletion_time": nil,
	}
	if excludeID != "" {
		excludeOID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return false, apperr.Validationf("Property ID %s is not a valid ObjectId.", excludeID)
		}
		filter["_id"] = bson.M{"$ne": excludeOID}
	}

	count, err := c.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateProperty replaces a property document, refreshing last_update_time.
func (c *MongoPropertyCollection) UpdateProperty(ctx context.Context, propertyID string, property models.Property) error {
	propertyOID, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return apperr.Validationf("Property ID %s is not a valid ObjectId.", propertyID)
	}

	property.ID = propertyOID
	property.LastUpdateTime = models.NowMillis()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": propertyOID}, property)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperr.NotFoundf("Property with ID '%s' not found.", propertyID)
	}
	return nil
}

// SoftDeleteProperty stamps a deletion time; the document stays for audit.
func (c *MongoPropertyCollection) SoftDeleteProperty(ctx context.Context, propertyID string) error {
	propertyOID, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return apperr.Validationf("Property ID %s is not a valid ObjectId.", propertyID)
	}

	now := models.NowMillis()
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": propertyOID, "deletion_time": nil},
		bson.M{"$set": bson.M{"deletion_time": now, "last_update_time": now}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperr.NotFoundf("Property with ID '%s' not found.", propertyID)
	}
	return nil
}
