package models

import (
	"testing"
)

func TestClaims_AllowsDealership(t *testing.T) {
	tests := []struct {
		name     string
		claims   *Claims
		id       string
		expected bool
	}{
		{
			"admin allowed everywhere",
			&Claims{IsAccountAdmin: true},
			"65a000000000000000000001",
			true,
		},
		{
			"listed dealership",
			&Claims{AllowedDealershipIDs: []string{"65a000000000000000000001", "65a000000000000000000002"}},
			"65a000000000000000000002",
			true,
		},
		{
			"unlisted dealership",
			&Claims{AllowedDealershipIDs: []string{"65a000000000000000000001"}},
			"65a000000000000000000002",
			false,
		},
		{
			"no allowed dealerships",
			&Claims{},
			"65a000000000000000000001",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.claims.AllowsDealership(tt.id)
			if result != tt.expected {
				t.Errorf("AllowsDealership(%s) = %v, want %v", tt.id, result, tt.expected)
			}
		})
	}
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	if prefs.Language != "EN" {
		t.Errorf("expected default language EN, got %s", prefs.Language)
	}
	if prefs.Theme != "light" {
		t.Errorf("expected default theme light, got %s", prefs.Theme)
	}
}

func TestIsValidVehicleStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   VehicleStatus
		expected bool
	}{
		{"in stock", StatusInStock, true},
		{"sold", StatusSold, true},
		{"prepping", StatusPrepping, true},
		{"in repair", StatusInRepair, true},
		{"in delivery", StatusInDelivery, true},
		{"delivered", StatusDelivered, true},
		{"invalid", "PARKED", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidVehicleStatus(tt.status)
			if result != tt.expected {
				t.Errorf("IsValidVehicleStatus(%s) = %v, want %v", tt.status, result, tt.expected)
			}
		})
	}
}
