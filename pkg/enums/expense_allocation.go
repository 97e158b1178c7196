package enums

import "fmt"

// ExpenseAllocation selects how session expenses are charged to a break.
type ExpenseAllocation string

const (
	ExpenseAllocationProRataCost   ExpenseAllocation = "pro_rata_cost"
	ExpenseAllocationEqualPerBreak ExpenseAllocation = "equal_per_break"
	ExpenseAllocationManual        ExpenseAllocation = "manual"
)

var validExpenseAllocations = []ExpenseAllocation{
	ExpenseAllocationProRataCost,
	ExpenseAllocationEqualPerBreak,
	ExpenseAllocationManual,
}

// String implements fmt.Stringer.
func (v ExpenseAllocation) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ExpenseAllocation.
func (v ExpenseAllocation) IsValid() bool {
	for _, candidate := range validExpenseAllocations {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseExpenseAllocation converts raw input into a ExpenseAllocation.
func ParseExpenseAllocation(value string) (ExpenseAllocation, error) {
	for _, candidate := range validExpenseAllocations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense allocation %q", value)
}
