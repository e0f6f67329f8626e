package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyOrderEntry is one position in a user's ordered view over a
// dealership's properties.
type PropertyOrderEntry struct {
	PropertyID primitive.ObjectID `bson:"property_id" json:"property_id"`
	Visible    bool               `bson:"visible" json:"visible"`
}

// PropertyGroupBy is an optional grouping descriptor over the property set.
type PropertyGroupBy struct {
	Value string `bson:"value" json:"value"`
	Text  string `bson:"text" json:"text"`
}

// PropertyConfig is a user's personal ordering and visibility view over one
// dealership's property registry. At most one active config exists per
// (account, dealership, user) triple.
type PropertyConfig struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AccountID       primitive.ObjectID   `bson:"account_id" json:"account_id"`
	DealershipID    primitive.ObjectID   `bson:"dealership_id" json:"dealership_id"`
	UserID          primitive.ObjectID   `bson:"user_id" json:"user_id"`
	PropertyOrder   []PropertyOrderEntry `bson:"property_order" json:"property_order"`
	PropertyGroupBy *PropertyGroupBy     `bson:"property_group_by_ids" json:"property_group_by_ids"`
	CreationTime    int64                `bson:"creation_time" json:"creation_time"`
	LastUpdateTime  int64                `bson:"last_update_time" json:"last_update_time"`
	DeletionTime    *int64               `bson:"deletion_time" json:"deletion_time"`
}

// ResolvedOrderEntry is a property_order entry joined against live property data.
type ResolvedOrderEntry struct {
	Property Property `json:"property"`
	Visible  bool     `json:"visible"`
}

// ResolvedPropertyConfig is the read model returned to clients: the stored
// config with every order entry resolved to its full property document.
type ResolvedPropertyConfig struct {
	ID              primitive.ObjectID   `json:"id"`
	AccountID       primitive.ObjectID   `json:"account_id"`
	DealershipID    primitive.ObjectID   `json:"dealership_id"`
	UserID          primitive.ObjectID   `json:"user_id"`
	PropertyOrder   []ResolvedOrderEntry `json:"property_order"`
	PropertyGroupBy *PropertyGroupBy     `json:"property_group_by_ids"`
}
