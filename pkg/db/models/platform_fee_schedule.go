package models

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

// PlatformFeeSchedule is read-only reference data seeded by migration.
type PlatformFeeSchedule struct {
	Platform          enums.Platform  `gorm:"column:platform;type:text;primaryKey"`
	CommissionPercent decimal.Decimal `gorm:"column:commission_percent;type:numeric(6,4);not null"`
	ProcessingPercent decimal.Decimal `gorm:"column:processing_percent;type:numeric(6,4);not null"`
	ProcessingFixed   decimal.Decimal `gorm:"column:processing_fixed;type:numeric(12,2);not null"`
}

func (PlatformFeeSchedule) TableName() string { return "platform_fee_schedules" }
