package enums

import "fmt"

// BreakStyle is how spots in a break are assigned to buyers.
type BreakStyle string

const (
	BreakStylePYT           BreakStyle = "pyt"
	BreakStylePYP           BreakStyle = "pyp"
	BreakStyleRandomDrafted BreakStyle = "random_drafted"
)

var validBreakStyles = []BreakStyle{
	BreakStylePYT,
	BreakStylePYP,
	BreakStyleRandomDrafted,
}

// String implements fmt.Stringer.
func (v BreakStyle) String() string {
	return string(v)
}

// IsValid reports whether the value is a known BreakStyle.
func (v BreakStyle) IsValid() bool {
	for _, candidate := range validBreakStyles {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseBreakStyle converts raw input into a BreakStyle.
func ParseBreakStyle(value string) (BreakStyle, error) {
	for _, candidate := range validBreakStyles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid break style %q", value)
}
