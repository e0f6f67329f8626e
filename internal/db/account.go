package db

import (
	"context"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountCollection defines the interface for account operations.
type AccountCollection interface {
	InsertAccount(ctx context.Context, account models.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*models.Account, error)
	DomainExists(ctx context.Context, domain string) (bool, error)
	DeleteAccount(ctx context.Context, accountID string) error
}

// MongoAccountCollection implements AccountCollection for MongoDB.
type MongoAccountCollection struct {
	Collection *mongo.Collection
}

// InsertAccount inserts an account record.
func (c *MongoAccountCollection) InsertAccount(ctx context.Context, account models.Account) error {
	_, err := c.Collection.InsertOne(ctx, account)
	return err
}

// FindAccountByID finds an account by ID.
func (c *MongoAccountCollection) FindAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID)
	}

	var account models.Account
	err = c.Collection.FindOne(ctx, bson.M{"_id": accountOID}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("Account with ID '%s' not found.", accountID)
		}
		return nil, err
	}
	return &account, nil
}

// DomainExists reports whether an account already claims the domain.
func (c *MongoAccountCollection) DomainExists(ctx context.Context, domain string) (bool, error) {
	count, err := c.Collection.CountDocuments(ctx, bson.M{"domain": domain})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteAccount removes an account document. Used to roll back half-finished
// registration.
func (c *MongoAccountCollection) DeleteAccount(ctx context.Context, accountID string) error {
	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID)
	}
	_, err = c.Collection.DeleteOne(ctx, bson.M{"_id": accountOID})
	return err
}
