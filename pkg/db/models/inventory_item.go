package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

// InventoryItem is a single piece of stock owned by a seller.
type InventoryItem struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Name       string                `gorm:"column:name;not null"`
	CostBasis  decimal.Decimal       `gorm:"column:cost_basis;type:numeric(12,2);not null"`
	AcquiredAt *time.Time            `gorm:"column:acquired_at"`
	Lifecycle  enums.LifecycleStatus `gorm:"column:lifecycle;type:text;not null"`
	Player     *string               `gorm:"column:player"`
	SetName    *string               `gorm:"column:set_name"`
	Grade      *string               `gorm:"column:grade"`
	Category   *string               `gorm:"column:category"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Lifecycle == "" {
		i.Lifecycle = enums.LifecycleStatusActive
	}
	return nil
}

// Label returns the grouping key used by leaderboards: player, then category.
func (i InventoryItem) Label() string {
	if i.Player != nil && *i.Player != "" {
		return *i.Player
	}
	if i.Category != nil && *i.Category != "" {
		return *i.Category
	}
	return ""
}
