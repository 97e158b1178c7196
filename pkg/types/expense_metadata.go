package types

import "github.com/shopspring/decimal"

// ExpenseMetadata carries structured detail for a session expense. Only the
// payroll fields are interpreted today.
type ExpenseMetadata struct {
	Breakers   int              `json:"breakers,omitempty"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`
	Hours      *decimal.Decimal `json:"hours,omitempty"`
	Vendor     string           `json:"vendor,omitempty"`
}

// PayrollTotal returns breakers x hourly rate x hours, or false when the
// metadata is not a complete payroll entry.
func (m *ExpenseMetadata) PayrollTotal() (decimal.Decimal, bool) {
	if m == nil || m.HourlyRate == nil || m.Hours == nil || m.Breakers <= 0 {
		return decimal.Zero, false
	}
	return m.HourlyRate.Mul(*m.Hours).Mul(decimal.NewFromInt(int64(m.Breakers))).Round(2), true
}
