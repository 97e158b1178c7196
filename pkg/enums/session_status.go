package enums

import "fmt"

// SessionStatus tracks the session lifecycle DRAFT -> FINALIZED -> RECONCILED.
type SessionStatus string

const (
	SessionStatusDraft      SessionStatus = "DRAFT"
	SessionStatusFinalized  SessionStatus = "FINALIZED"
	SessionStatusReconciled SessionStatus = "RECONCILED"
)

var validSessionStatuses = []SessionStatus{
	SessionStatusDraft,
	SessionStatusFinalized,
	SessionStatusReconciled,
}

// String implements fmt.Stringer.
func (v SessionStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SessionStatus.
func (v SessionStatus) IsValid() bool {
	for _, candidate := range validSessionStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSessionStatus converts raw input into a SessionStatus.
func ParseSessionStatus(value string) (SessionStatus, error) {
	for _, candidate := range validSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session status %q", value)
}

// CanTransitionTo reports whether the lifecycle allows moving from v to next.
// FINALIZED may return to DRAFT; RECONCILED is terminal.
func (v SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch v {
	case SessionStatusDraft:
		return next == SessionStatusFinalized
	case SessionStatusFinalized:
		return next == SessionStatusReconciled || next == SessionStatusDraft
	case SessionStatusReconciled:
		return false
	default:
		return false
	}
}

// PlanningEditable reports whether run-list and planning fields may change.
func (v SessionStatus) PlanningEditable() bool {
	return v == SessionStatusDraft
}
