// Package fees computes channel fees for a sale.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

// Schedule is a resolved fee configuration. Percent fields are fractions (0.08 = 8%).
type Schedule struct {
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	ProcessingPercent decimal.Decimal `json:"processingPercent"`
	ProcessingFixed   decimal.Decimal `json:"processingFixed"`
}

// IsZero reports whether the schedule charges nothing.
func (s Schedule) IsZero() bool {
	return s.CommissionPercent.IsZero() && s.ProcessingPercent.IsZero() && s.ProcessingFixed.IsZero()
}

// Breakdown is the result of a fee calculation, rounded to cents.
type Breakdown struct {
	Commission decimal.Decimal `json:"commission"`
	Processing decimal.Decimal `json:"processing"`
	TotalFees  decimal.Decimal `json:"totalFees"`
	Overridden bool            `json:"overridden"`
}

var (
	pct = decimal.RequireFromString

	// DefaultSchedules mirrors the seeded platform_fee_schedules table.
	DefaultSchedules = map[enums.Platform]Schedule{
		enums.PlatformWhatnot:   {CommissionPercent: pct("0.08"), ProcessingPercent: pct("0.029"), ProcessingFixed: pct("0.30")},
		enums.PlatformEbay:      {CommissionPercent: pct("0.1325"), ProcessingPercent: decimal.Zero, ProcessingFixed: pct("0.30")},
		enums.PlatformInstagram: {CommissionPercent: decimal.Zero, ProcessingPercent: pct("0.029"), ProcessingFixed: pct("0.30")},
		enums.PlatformShow:      {},
		enums.PlatformOther:     {},
	}
)

// Calculate returns commission, processing and total fees for price. A non-nil
// override replaces TotalFees as-is and leaves the breakdown zeroed.
func Calculate(price decimal.Decimal, schedule Schedule, override *decimal.Decimal) Breakdown {
	if override != nil {
		return Breakdown{
			Commission: decimal.Zero,
			Processing: decimal.Zero,
			TotalFees:  override.Round(2),
			Overridden: true,
		}
	}
	commission := price.Mul(schedule.CommissionPercent)
	processing := price.Mul(schedule.ProcessingPercent).Add(schedule.ProcessingFixed)
	return Breakdown{
		Commission: commission.Round(2),
		Processing: processing.Round(2),
		TotalFees:  commission.Add(processing).Round(2),
	}
}

// ScheduleFor resolves the default schedule for a platform, falling back to other.
func ScheduleFor(platform enums.Platform) Schedule {
	if s, ok := DefaultSchedules[platform]; ok {
		return s
	}
	return DefaultSchedules[enums.PlatformOther]
}

// FlatRate builds a commission-only schedule from a session fee rate.
func FlatRate(rate decimal.Decimal) Schedule {
	return Schedule{CommissionPercent: rate}
}
