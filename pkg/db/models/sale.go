package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

// SaleItemConstraint is the unique index guarding one sale per item.
const SaleItemConstraint = "sales_item_id_key"

// Sale records the realised outcome for one inventory item.
type Sale struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	ItemID    uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:sales_item_id_key"`
	SessionID *uuid.UUID      `gorm:"column:session_id;type:uuid;index"`
	Channel   enums.Platform  `gorm:"column:channel;type:text;not null"`
	SoldPrice decimal.Decimal `gorm:"column:sold_price;type:numeric(12,2);not null"`
	Fees      decimal.Decimal `gorm:"column:fees;type:numeric(12,2);not null"`
	Taxes     decimal.Decimal `gorm:"column:taxes;type:numeric(12,2);not null"`
	Shipping  decimal.Decimal `gorm:"column:shipping;type:numeric(12,2);not null"`
	Buyer     *string         `gorm:"column:buyer"`
	SoldAt    time.Time       `gorm:"column:sold_at;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Sale) TableName() string { return "sales" }

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NetProfit is sold price minus fees, taxes, shipping and the item's cost basis.
func (s Sale) NetProfit(costBasis decimal.Decimal) decimal.Decimal {
	return s.SoldPrice.Sub(s.Fees).Sub(s.Taxes).Sub(s.Shipping).Sub(costBasis)
}
