package enums

import "fmt"

// EntityKind identifies the catalog entity a relationship summary is anchored on.
type EntityKind string

const (
	EntityKindPharmacy     EntityKind = "pharmacy"
	EntityKindManufacturer EntityKind = "manufacturer"
	EntityKindProduct      EntityKind = "product"
	EntityKindStrain       EntityKind = "strain"
)

var validEntityKinds = []EntityKind{
	EntityKindPharmacy,
	EntityKindManufacturer,
	EntityKindProduct,
	EntityKindStrain,
}

// String returns the literal string for the kind.
func (k EntityKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is known.
func (k EntityKind) IsValid() bool {
	for _, candidate := range validEntityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseEntityKind converts raw input into an EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	for _, candidate := range validEntityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity kind %q", value)
}
