package db

import (
	"context"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DealershipCollection defines the interface for dealership directory operations.
type DealershipCollection interface {
	InsertDealership(ctx context.Context, dealership models.Dealership) error
	FindActiveDealershipByID(ctx context.Context, dealershipID string) (*models.Dealership, error)
	FindActiveDealerships(ctx context.Context, accountID string) ([]models.Dealership, error)
	NameExists(ctx context.Context, accountID, name string) (bool, error)
}

// MongoDealershipCollection implements DealershipCollection for MongoDB.
type MongoDealershipCollection struct {
	Collection *mongo.Collection
}

// InsertDealership inserts a dealership record.
func (c *MongoDealershipCollection) InsertDealership(ctx context.Context, dealership models.Dealership) error {
	_, err := c.Collection.InsertOne(ctx, dealership)
	return err
}

// FindActiveDealershipByID finds a non-deleted dealership by ID.
func (c *MongoDealershipCollection) FindActiveDealershipByID(ctx context.Context, dealershipID string) (*models.Dealership, error) {
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return nil, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}

	var dealership models.Dealership
	err = c.Collection.FindOne(ctx, bson.M{"_id": dealershipOID, "deletion_time": nil}).Decode(&dealership)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("Dealership '%s' not found.", dealershipID)
		}
		return nil, err
	}
	return &dealership, nil
}

// FindActiveDealerships returns the non-deleted dealerships of an account.
func (c *MongoDealershipCollection) FindActiveDealerships(ctx context.Context, accountID string) ([]models.Dealership, error) {
	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID)
	}

	cursor, err := c.Collection.Find(ctx, bson.M{"account_id": accountOID, "deletion_time": nil})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var dealerships []models.Dealership
	if err := cursor.All(ctx, &dealerships); err != nil {
		return nil, err
	}
	return dealerships, nil
}

// NameExists reports whether an active dealership of the account already
// carries the name.
func (c *MongoDealershipCollection) NameExists(ctx context.Context, accountID, name string) (bool, error) {
	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return false, apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID)
	}

	count, err := c.Collection.CountDocuments(ctx, bson.M{
		"account_id":    accountOID,
		"name":          name,
		"deletion_time": nil,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
