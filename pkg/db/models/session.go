package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

// Session is a planned or completed livestream show.
type Session struct {
	ID                              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID                          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Title                           string              `gorm:"column:title;not null"`
	SessionDate                     time.Time           `gorm:"column:session_date;not null"`
	Platform                        enums.Platform      `gorm:"column:platform;type:text;not null"`
	Status                          enums.SessionStatus `gorm:"column:status;type:text;not null"`
	ShowType                        enums.ShowType      `gorm:"column:show_type;type:text;not null"`
	EstimatedFeeRate                decimal.Decimal     `gorm:"column:estimated_fee_rate;type:numeric(6,4);not null"`
	ProfitTargetAmount              *decimal.Decimal    `gorm:"column:profit_target_amount;type:numeric(12,2)"`
	ProfitTargetPercent             *decimal.Decimal    `gorm:"column:profit_target_percent;type:numeric(6,2)"`
	RevenueAllocationSinglesPercent *decimal.Decimal    `gorm:"column:revenue_allocation_singles_percent;type:numeric(5,2)"`
	ExpectedSellThroughPercent      *decimal.Decimal    `gorm:"column:expected_sell_through_percent;type:numeric(5,2)"`
	FinalizedAt                     *time.Time          `gorm:"column:finalized_at"`
	ReconciledAt                    *time.Time          `gorm:"column:reconciled_at"`
	CreatedAt                       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = enums.SessionStatusDraft
	}
	return nil
}

// SessionItem places an inventory item in a session run list.
type SessionItem struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SessionID  uuid.UUID        `gorm:"column:session_id;type:uuid;not null;uniqueIndex:session_items_session_number_key,priority:1"`
	ItemID     uuid.UUID        `gorm:"column:item_id;type:uuid;not null"`
	ItemNumber int              `gorm:"column:item_number;not null;uniqueIndex:session_items_session_number_key,priority:2"`
	Position   int              `gorm:"column:position;not null"`
	AddedVia   enums.ItemSource `gorm:"column:added_via;type:text;not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`

	Item InventoryItem `gorm:"foreignKey:ItemID;references:ID"`
}

func (SessionItem) TableName() string { return "session_items" }

func (s *SessionItem) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.AddedVia == "" {
		s.AddedVia = enums.ItemSourceManual
	}
	return nil
}
