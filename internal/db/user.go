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

// UserCollection defines the interface for user database operations.
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FindActiveUsersByAccount(ctx context.Context, accountID string) ([]models.User, error)
	FindActiveAdminsByAccount(ctx context.Context, accountID string) ([]models.User, error)
	UpdateUser(ctx context.Context, userID string, user models.User) error
	SetActiveDealership(ctx context.Context, userID, dealershipID string) (*models.User, error)
	AddAllowedDealership(ctx context.Context, userID primitive.ObjectID, dealershipID primitive.ObjectID) error
	DeleteUser(ctx context.Context, userID string) error
}

// MongoUserCollection implements UserCollection for MongoDB.
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new user.
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) error {
	_, err := c.Collection.InsertOne(ctx, user)
	return err
}

// FindUserByID finds a non-deleted user by ID.
func (c *MongoUserCollection) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Validationf("User ID %s is not a valid ObjectId.", userID)
	}

	var user models.User
	err = c.Collection.FindOne(ctx, bson.M{"_id": userOID, "deletion_time": nil}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("User with ID '%s' not found.", userID)
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail finds a non-deleted user by email, password included.
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := c.Collection.FindOne(ctx, bson.M{"email": email, "deletion_time": nil}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("User with email '%s' not found.", email)
		}
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether any user carries the email.
func (c *MongoUserCollection) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := c.Collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindActiveUsersByAccount returns the non-deleted users of an account.
func (c *MongoUserCollection) FindActiveUsersByAccount(ctx context.Context, accountID string) ([]models.User, error) {
	return c.findUsers(ctx, accountID, bson.M{})
}

// FindActiveAdminsByAccount returns the non-deleted account admins.
func (c *MongoUserCollection) FindActiveAdminsByAccount(ctx context.Context, accountID string) ([]models.User, error) {
	return c.findUsers(ctx, accountID, bson.M{"is_account_admin": true})
}

func (c *MongoUserCollection) findUsers(ctx context.Context, accountID string, extra bson.M) ([]models.User, error) {
	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, apperr.Validationf("Account ID %s is not a valid ObjectId.", accountID)
	}

	filter := bson.M{"account_id": accountOID, "deletion_time": nil}
	for k, v := range extra {
		filter[k] = v
	}

	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser replaces a user document, refreshing last_update_time.
func (c *MongoUserCollection) UpdateUser(ctx context.Context, userID string, user models.User) error {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperr.Validationf("User ID %s is not a valid ObjectId.", userID)
	}

	user.ID = userOID
	user.LastUpdateTime = models.NowMillis()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": userOID}, user)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperr.NotFoundf("User with ID '%s' not found.", userID)
	}
	return nil
}

// SetActiveDealership points the user at a dealership and returns the updated
// document.
func (c *MongoUserCollection) SetActiveDealership(ctx context.Context, userID, dealershipID string) (*models.User, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Validationf("User ID %s is not a valid ObjectId.", userID)
	}
	dealershipOID, err := primitive.ObjectIDFromHex(dealershipID)
	if err != nil {
		return nil, apperr.Validationf("Dealership ID %s is not a valid ObjectId.", dealershipID)
	}

	var user models.User
	err = c.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": userOID, "deletion_time": nil},
		bson.M{"$set": bson.M{
			"active_dealership_id": dealershipOID,
			"last_update_time":     models.NowMillis(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("User with ID '%s' not found.", userID)
		}
		return nil, err
	}
	return &user, nil
}

// AddAllowedDealership grants the user access to a dealership. $addToSet keeps
// the grant idempotent.
func (c *MongoUserCollection) AddAllowedDealership(ctx context.Context, userID primitive.ObjectID, dealershipID primitive.ObjectID) error {
	_, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"allowed_dealership_ids": dealershipID},
			"$set":      bson.M{"last_update_time": models.NowMillis()},
		},
	)
	return err
}

// DeleteUser removes a user document. Used to roll back half-finished
// registration, not as the public delete path.
func (c *MongoUserCollection) DeleteUser(ctx context.Context, userID string) error {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperr.Validationf("User ID %s is not a valid ObjectId.", userID)
	}
	_, err = c.Collection.DeleteOne(ctx, bson.M{"_id": userOID})
	return err
}
