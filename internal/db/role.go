package db

import (
	"context"

	"github.com/autotracks/autotracks-api/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoleCollection defines the interface for role operations.
type RoleCollection interface {
	InsertRole(ctx context.Context, role models.Role) error
}

// MongoRoleCollection implements RoleCollection for MongoDB.
type MongoRoleCollection struct {
	Collection *mongo.Collection
}

// InsertRole inserts a role record.
func (c *MongoRoleCollection) InsertRole(ctx context.Context, role models.Role) error {
	_, err := c.Collection.InsertOne(ctx, role)
	return err
}
