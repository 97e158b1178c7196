package enums

import "fmt"

type ExpenseCategory string

const (
	ExpenseCategorySupplies ExpenseCategory = "supplies"
	ExpenseCategoryShipping ExpenseCategory = "shipping"
	ExpenseCategoryPromo    ExpenseCategory = "promo"
	ExpenseCategoryShowFee  ExpenseCategory = "show_fee"
	ExpenseCategoryTravel   ExpenseCategory = "travel"
	ExpenseCategoryGrading  ExpenseCategory = "grading"
	ExpenseCategoryPayroll  ExpenseCategory = "payroll"
	ExpenseCategoryMisc     ExpenseCategory = "misc"
)

var validExpenseCategorys = []ExpenseCategory{
	ExpenseCategorySupplies,
	ExpenseCategoryShipping,
	ExpenseCategoryPromo,
	ExpenseCategoryShowFee,
	ExpenseCategoryTravel,
	ExpenseCategoryGrading,
	ExpenseCategoryPayroll,
	ExpenseCategoryMisc,
}

// String implements fmt.Stringer.
func (v ExpenseCategory) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ExpenseCategory.
func (v ExpenseCategory) IsValid() bool {
	for _, candidate := range validExpenseCategorys {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseExpenseCategory converts raw input into a ExpenseCategory.
func ParseExpenseCategory(value string) (ExpenseCategory, error) {
	for _, candidate := range validExpenseCategorys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense category %q", value)
}
