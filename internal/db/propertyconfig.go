package db

import (
	"context"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PropertyConfigCollection defines the interface for per-user property view
// operations. AddPropertyToOrder and RemovePropertyFromOrder are idempotent:
// re-running them against an already-synchronized config is a no-op.
type PropertyConfigCollection interface {
	InsertConfigs(ctx context.Context, configs []models.PropertyConfig) error
	FindActiveConfigsByDealership(ctx context.Context, dealershipID string) ([]models.PropertyConfig, error)
	FindConfigByUserAndDealership(ctx context.Context, dealershipID, userID string) (*models.PropertyConfig, error)
	FindConfigsByAccountAndUser(ctx context.Context, accountID, userID string) ([]models.PropertyConfig, error)
	UpdateOrder(ctx context.Context, configID string, order []models.PropertyOrderEntry, groupBy *models.PropertyGroupBy) (*models.PropertyConfig, error)
	AddPropertyToOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error
	RemovePropertyFromOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error
}

// MongoPropertyConfigCollection implements PropertyConfigCollection for MongoDB.
type MongoPropertyConfigCollection struct {
	Collection *mongo.Collection
}

// InsertConfigs inserts a batch of configs. A nil or empty batch is a no-op.
func (c *MongoPropertyConfigCollection) InsertConfigs(ctx context.Context, configs []models.PropertyConfig) error {
	if len(configs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(configs))
	for _, config := range configs {
		docs = append(docs, config)
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// FindActiveConfigsByDealership returns every non-deleted config of a dealership.
func (c *MongoPropertyConfigCollection) FindActiveConfigsByDealership(ctx context.Context, dealershipID string) ([]models.PropertyConfig, error) {
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

	var configs []models.PropertyConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// FindConfigByUserAndDealership returns the single active config of a
// (dealership, user) pair.
func (c *MongoPropertyConfigCollection) FindConfigByUserAndDealership(ctx context.Context, dealershipID, userID string) (*models.PropertyConfig, error) {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return nil, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Validationf("User ID %s is not a valid ObjectId.", userID)
	}

	var config models.PropertyConfig
	err = c.Collection.FindOne(ctx, bson.M{
		"dealership_id": dealershipOID,
		"user_id":       userOID,
		"deletion_time": nil,
	}).Decode(&config)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("Vehicle property order not found for user with ID %s", userID)
		}
		return nil, err
	}
	return &config, nil
}

// FindConfigsByAccountAndUser returns the user's configs across an account.
func (c *MongoPropertyConfigCollection) FindConfigsByAccountAndUser(ctx context.Context, accountID, userID string) ([]models.PropertyConfig, error) {
	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID)
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Validationf("User ID %s is not a valid ObjectId.", userID)
	}

	cursor, err := c.Collection.Find(ctx, bson.M{
		"account_id":    accountOID,
		"user_id":       userOID,
		"deletion_time": nil,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []models.PropertyConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// UpdateOrder replaces property_order and property_group_by_ids wholesale and
// returns the updated document.
func (c *MongoPropertyConfigCollection) UpdateOrder(ctx context.Context, configID string, order []models.PropertyOrderEntry, groupBy *models.PropertyGroupBy) (*models.PropertyConfig, error) {
	configOID, err := primitive.ObjectIDFromHex(configID)
	if err != nil {
		return nil, apperr.Validationf("Property config ID %s is not a valid ObjectId.", configID)
	}

	update := bson.M{"$set": bson.M{
		"property_order":        order,
		"property_group_by_ids": groupBy,
		"last_update_time":      models.NowMillis(),
	}}

	var config models.PropertyConfig
	err = c.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": configOID, "deletion_time": nil},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&config)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("Property config with ID '%s' not found.", configID)
		}
		return nil, err
	}
	return &config, nil
}

// AddPropertyToOrder appends {property_id, visible: true} to the config's
// order. The filter skips configs that already reference the property, which
// makes retries no-ops.
func (c *MongoPropertyConfigCollection) AddPropertyToOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error {
	_, err := c.Collection.UpdateOne(
		ctx,
		bson.M{
			"_id":                        configID,
			"property_order.property_id": bson.M{"$ne": propertyID},
		},
		bson.M{
			"$push": bson.M{"property_order": models.PropertyOrderEntry{PropertyID: propertyID, Visible: true}},
			"$set":  bson.M{"last_update_time": models.NowMillis()},
		},
	)
	return err
}

// RemovePropertyFromOrder pulls every entry referencing the property. Pulling
// from a config that lacks the entry is a no-op.
func (c *MongoPropertyConfigCollection) RemovePropertyFromOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error {
	_, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": configID},
		bson.M{
			"$pull": bson.M{"property_order": bson.M{"property_id": propertyID}},
			"$set":  bson.M{"last_update_time": models.NowMillis()},
		},
	)
	return err
}
