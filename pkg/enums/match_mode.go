package enums

import "fmt"

// MatchMode selects how item numbers are resolved for imported rows.
type MatchMode string

const (
	MatchModeAuto       MatchMode = "auto"
	MatchModeItemNumber MatchMode = "item_number"
	MatchModeSequence   MatchMode = "sequence"
)

var validMatchModes = []MatchMode{
	MatchModeAuto,
	MatchModeItemNumber,
	MatchModeSequence,
}

// String implements fmt.Stringer.
func (v MatchMode) String() string {
	return string(v)
}

// IsValid reports whether the value is a known MatchMode.
func (v MatchMode) IsValid() bool {
	for _, candidate := range validMatchModes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseMatchMode converts raw input into a MatchMode.
func ParseMatchMode(value string) (MatchMode, error) {
	for _, candidate := range validMatchModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match mode %q", value)
}
