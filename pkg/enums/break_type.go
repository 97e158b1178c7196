package enums

import "fmt"

// BreakType determines how a break's box cost is resolved.
type BreakType string

const (
	BreakTypeSingleProduct BreakType = "single_product"
	BreakTypeMixer         BreakType = "mixer"
)

var validBreakTypes = []BreakType{
	BreakTypeSingleProduct,
	BreakTypeMixer,
}

// String implements fmt.Stringer.
func (v BreakType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known BreakType.
func (v BreakType) IsValid() bool {
	for _, candidate := range validBreakTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseBreakType converts raw input into a BreakType.
func ParseBreakType(value string) (BreakType, error) {
	for _, candidate := range validBreakTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid break type %q", value)
}
