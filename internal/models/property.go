package models

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InputType enumerates the supported input widgets for a custom property.
type InputType string

const (
	InputTypeText     InputType = "Text"
	InputTypeNumber   InputType = "Number"
	InputTypeCurrency InputType = "Currency"
	InputTypeDate     InputType = "Date"
	InputTypeDropdown InputType = "Dropdown"
	InputTypeList     InputType = "List"
)

// IsValidInputType checks if an input type is part of the enum.
func IsValidInputType(t InputType) bool {
	switch t {
	case InputTypeText, InputTypeNumber, InputTypeCurrency, InputTypeDate, InputTypeDropdown, InputTypeList:
		return true
	default:
		return false
	}
}

// PropertyKey is the machine identifier of a property, derived from its label.
// It keys the entries of a vehicle's properties map.
type PropertyKey string

// DeriveKey converts a display label to its camelCase property key.
// Deterministic and pure: the first word is lower-cased at its first rune,
// subsequent words are upper-cased at their first rune, whitespace is dropped.
// "Trim Level" -> "trimLevel".
func DeriveKey(label string) PropertyKey {
	words := strings.Fields(label)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		if i == 0 {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		b.WriteString(word[size:])
	}
	return PropertyKey(b.String())
}

// Property is a dealership-defined vehicle attribute definition (schema, not data).
type Property struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DealershipID    primitive.ObjectID `bson:"dealership_id" json:"dealership_id"`
	Label           string             `bson:"label" json:"label"`
	Key             PropertyKey        `bson:"key" json:"key"`
	InputType       InputType          `bson:"input_type" json:"input_type"`
	DropdownOptions []string           `bson:"dropdown_options" json:"dropdown_options"`
	IsRequired      bool               `bson:"is_required" json:"is_required"`
	CreationTime    int64              `bson:"creation_time" json:"creation_time"`
	LastUpdateTime  int64              `bson:"last_update_time" json:"last_update_time"`
	DeletionTime    *int64             `bson:"deletion_time" json:"deletion_time"`
}

// Snapshot returns the denormalized copy of the property that is embedded in a
// vehicle's properties map. The snapshot is taken at assignment time and is not
// kept current when the property's label or input type later changes.
func (p *Property) Snapshot() PropertySnapshot {
	return PropertySnapshot{
		Label:     p.Label,
		Value:     nil,
		InputType: p.InputType,
	}
}
