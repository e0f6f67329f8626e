package models

import (
	"testing"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected PropertyKey
	}{
		{"single word", "Mileage", "mileage"},
		{"two words", "Trim Level", "trimLevel"},
		{"three words", "Previous Owner Count", "previousOwnerCount"},
		{"already lowercase", "color", "color"},
		{"extra whitespace", "  Trim   Level ", "trimLevel"},
		{"empty label", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DeriveKey(tt.label)
			if result != tt.expected {
				t.Errorf("DeriveKey(%q) = %q, want %q", tt.label, result, tt.expected)
			}
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	labels := []string{"Trim Level", "On Road Since", "color", "VIN Check Date"}
	for _, label := range labels {
		first := DeriveKey(label)
		second := DeriveKey(label)
		if first != second {
			t.Errorf("DeriveKey(%q) not deterministic: %q != %q", label, first, second)
		}
	}
}

func TestIsValidInputType(t *testing.T) {
	tests := []struct {
		name      string
		inputType InputType
		expected  bool
	}{
		{"text", InputTypeText, true},
		{"number", InputTypeNumber, true},
		{"currency", InputTypeCurrency, true},
		{"date", InputTypeDate, true},
		{"dropdown", InputTypeDropdown, true},
		{"list", InputTypeList, true},
		{"unknown", "Checkbox", false},
		{"empty", "", false},
		{"wrong case", "text", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidInputType(tt.inputType)
			if result != tt.expected {
				t.Errorf("IsValidInputType(%q) = %v, want %v", tt.inputType, result, tt.expected)
			}
		})
	}
}

func TestPropertySnapshot(t *testing.T) {
	property := Property{
		Label:     "Trim Level",
		Key:       "trimLevel",
		InputType: InputTypeText,
	}

	snapshot := property.Snapshot()
	if snapshot.Label != "Trim Level" {
		t.Errorf("expected label 'Trim Level', got %q", snapshot.Label)
	}
	if snapshot.Value != nil {
		t.Errorf("expected nil value, got %v", snapshot.Value)
	}
	if snapshot.InputType != InputTypeText {
		t.Errorf("expected input type Text, got %q", snapshot.InputType)
	}
}
