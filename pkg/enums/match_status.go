package enums

import "fmt"

// MatchStatus classifies an imported sales row against a session run list.
type MatchStatus string

const (
	MatchStatusMatched   MatchStatus = "matched"
	MatchStatusUnmatched MatchStatus = "unmatched"
	MatchStatusInvalid   MatchStatus = "invalid"
	MatchStatusExcluded  MatchStatus = "excluded"
)

var validMatchStatuses = []MatchStatus{
	MatchStatusMatched,
	MatchStatusUnmatched,
	MatchStatusInvalid,
	MatchStatusExcluded,
}

// String implements fmt.Stringer.
func (v MatchStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known MatchStatus.
func (v MatchStatus) IsValid() bool {
	for _, candidate := range validMatchStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseMatchStatus converts raw input into a MatchStatus.
func ParseMatchStatus(value string) (MatchStatus, error) {
	for _, candidate := range validMatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match status %q", value)
}
