package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy is the CRUD flag set of a permission.
type Policy struct {
	Create bool `bson:"create" json:"create"`
	Read   bool `bson:"read" json:"read"`
	Update bool `bson:"update" json:"update"`
	Delete bool `bson:"delete" json:"delete"`
}

// Permission grants a policy over one resource kind.
type Permission struct {
	Resource string `bson:"resource" json:"resource"`
	Policy   Policy `bson:"policy" json:"policy"`
}

// Role is a named permission set scoped to a dealership. Permissions are static
// data attached to users; enforcement beyond the admin check is out of scope.
type Role struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID      primitive.ObjectID `bson:"account_id" json:"account_id"`
	DealershipID   primitive.ObjectID `bson:"dealership_id" json:"dealership_id"`
	Title          string             `bson:"title" json:"title"`
	Permissions    []Permission       `bson:"permissions" json:"permissions"`
	CreationTime   int64              `bson:"creation_time" json:"creation_time"`
	LastUpdateTime int64              `bson:"last_update_time" json:"last_update_time"`
	DeletionTime   *int64             `bson:"deletion_time" json:"deletion_time"`
}

// permissionResources are the resource kinds every role carries a policy for.
var permissionResources = []string{
	"vehicle",
	"location",
	"user",
	"account",
	"vehicle_property",
	"dealership",
}

// BuildPermissions expands flat grant strings of the form "<action>_<resource>"
// (for example "create_vehicle") into the full permission matrix. Unknown
// grants are ignored; resources without grants keep an all-false policy.
func BuildPermissions(grants []string) []Permission {
	granted := make(map[string]bool, len(grants))
	for _, g := range grants {
		granted[g] = true
	}

	permissions := make([]Permission, 0, len(permissionResources))
	for _, resource := range permissionResources {
		permissions = append(permissions, Permission{
			Resource: resource,
			Policy: Policy{
				Create: granted["create_"+resource],
				Read:   granted["read_"+resource],
				Update: granted["update_"+resource],
				Delete: granted["delete_"+resource],
			},
		})
	}
	return permissions
}
