package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	"github.com/angelmondragon/showrunner-backend/pkg/types"
)

type SessionExpense struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	SessionID uuid.UUID              `gorm:"column:session_id;type:uuid;not null;index"`
	Category  enums.ExpenseCategory  `gorm:"column:category;type:text;not null"`
	Amount    decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Metadata  *types.ExpenseMetadata `gorm:"column:metadata;type:jsonb;serializer:json"`
	Note      *string                `gorm:"column:note"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (SessionExpense) TableName() string { return "session_expenses" }

func (e *SessionExpense) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
