package enums

import "fmt"

// LifecycleStatus is the single authoritative state of an inventory item.
type LifecycleStatus string

const (
	LifecycleStatusActive   LifecycleStatus = "active"
	LifecycleStatusSold     LifecycleStatus = "sold"
	LifecycleStatusArchived LifecycleStatus = "archived"
)

var validLifecycleStatuses = []LifecycleStatus{
	LifecycleStatusActive,
	LifecycleStatusSold,
	LifecycleStatusArchived,
}

// String implements fmt.Stringer.
func (v LifecycleStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known LifecycleStatus.
func (v LifecycleStatus) IsValid() bool {
	for _, candidate := range validLifecycleStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLifecycleStatus converts raw input into a LifecycleStatus.
func ParseLifecycleStatus(value string) (LifecycleStatus, error) {
	for _, candidate := range validLifecycleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lifecycle status %q", value)
}

// CanTransitionTo reports whether an item may move from v to next. Only active
// items transition, with the single exception of restoring an archived item.
func (v LifecycleStatus) CanTransitionTo(next LifecycleStatus) bool {
	switch v {
	case LifecycleStatusActive:
		return next == LifecycleStatusSold || next == LifecycleStatusArchived
	case LifecycleStatusArchived:
		return next == LifecycleStatusActive
	case LifecycleStatusSold:
		return false
	default:
		return false
	}
}
