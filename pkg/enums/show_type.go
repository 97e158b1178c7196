package enums

import "fmt"

// ShowType describes the composition of a session run list.
type ShowType string

const (
	ShowTypeSinglesOnly ShowType = "singles_only"
	ShowTypeBreaksOnly  ShowType = "breaks_only"
	ShowTypeMixed       ShowType = "mixed"
)

var validShowTypes = []ShowType{
	ShowTypeSinglesOnly,
	ShowTypeBreaksOnly,
	ShowTypeMixed,
}

// String implements fmt.Stringer.
func (v ShowType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ShowType.
func (v ShowType) IsValid() bool {
	for _, candidate := range validShowTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseShowType converts raw input into a ShowType.
func ParseShowType(value string) (ShowType, error) {
	for _, candidate := range validShowTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid show type %q", value)
}
