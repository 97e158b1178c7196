package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

// Break is a spot-based product sold inside a session.
type Break struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	SessionID            uuid.UUID               `gorm:"column:session_id;type:uuid;not null;index"`
	Title                string                  `gorm:"column:title;not null"`
	Style                enums.BreakStyle        `gorm:"column:style;type:text;not null"`
	Type                 enums.BreakType         `gorm:"column:type;type:text;not null"`
	BoxCost              decimal.Decimal         `gorm:"column:box_cost;type:numeric(12,2);not null"`
	SpotCount            int                     `gorm:"column:spot_count;not null"`
	FeeRateOverride      *decimal.Decimal        `gorm:"column:fee_rate_override;type:numeric(6,4)"`
	ProfitTargetOverride *decimal.Decimal        `gorm:"column:profit_target_override;type:numeric(12,2)"`
	ExpenseAllocation    enums.ExpenseAllocation `gorm:"column:expense_allocation;type:text;not null"`
	ManualExpenseAmount  decimal.Decimal         `gorm:"column:manual_expense_amount;type:numeric(12,2);not null"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (Break) TableName() string { return "breaks" }

func (b *Break) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.ExpenseAllocation == "" {
		b.ExpenseAllocation = enums.ExpenseAllocationProRataCost
	}
	return nil
}

// BreakBox is one product line inside a mixer break.
type BreakBox struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BreakID      uuid.UUID       `gorm:"column:break_id;type:uuid;not null;index"`
	ProductLabel string          `gorm:"column:product_label;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	PricePerBox  decimal.Decimal `gorm:"column:price_per_box;type:numeric(12,2);not null"`
}

func (BreakBox) TableName() string { return "break_boxes" }

func (b *BreakBox) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
