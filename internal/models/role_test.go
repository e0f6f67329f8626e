package models

import (
	"testing"
)

func TestBuildPermissions(t *testing.T) {
	permissions := BuildPermissions([]string{"create_vehicle", "read_vehicle", "read_user", "delete_nonsense"})

	if len(permissions) != len(permissionResources) {
		t.Fatalf("expected %d permissions, got %d", len(permissionResources), len(permissions))
	}

	byResource := make(map[string]Policy)
	for _, p := range permissions {
		byResource[p.Resource] = p.Policy
	}

	vehicle := byResource["vehicle"]
	if !vehicle.Create || !vehicle.Read {
		t.Errorf("expected vehicle create/read granted, got %+v", vehicle)
	}
	if vehicle.Update || vehicle.Delete {
		t.Errorf("expected vehicle update/delete denied, got %+v", vehicle)
	}

	user := byResource["user"]
	if !user.Read {
		t.Errorf("expected user read granted, got %+v", user)
	}
	if user.Create || user.Update || user.Delete {
		t.Errorf("expected user create/update/delete denied, got %+v", user)
	}

	dealership := byResource["dealership"]
	if dealership.Create || dealership.Read || dealership.Update || dealership.Delete {
		t.Errorf("expected dealership all denied, got %+v", dealership)
	}
}

func TestBuildPermissions_NoGrants(t *testing.T) {
	permissions := BuildPermissions(nil)

	if len(permissions) != len(permissionResources) {
		t.Fatalf("expected %d permissions, got %d", len(permissionResources), len(permissions))
	}
	for _, p := range permissions {
		if p.Policy.Create || p.Policy.Read || p.Policy.Update || p.Policy.Delete {
			t.Errorf("expected all-false policy for %s, got %+v", p.Resource, p.Policy)
		}
	}
}
