// Package expenses reads session expense lines.
package expenses

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/repo"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// Repository stores session expenses.
type Repository struct {
	base repo.Base
}

// NewRepository builds an expenses repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(conn)}
}

// Create validates and inserts an expense line.
func (r *Repository) Create(ctx context.Context, e *models.SessionExpense) error {
	if err := Normalize(e); err != nil {
		return err
	}
	return repo.Translate(r.base.DB(ctx).Create(e).Error, "session expense")
}

// Normalize checks the category and amount. A payroll line with no amount
// takes breakers x hourly rate x hours from its metadata.
func Normalize(e *models.SessionExpense) error {
	if !e.Category.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown expense category %q", e.Category)
	}
	if e.Category == enums.ExpenseCategoryPayroll && e.Amount.IsZero() {
		if total, ok := e.Metadata.PayrollTotal(); ok {
			e.Amount = total
		}
	}
	if e.Amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "expense amount cannot be negative")
	}
	return nil
}

// ListBySession returns a session's expenses in creation order.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionExpense, error) {
	var out []models.SessionExpense
	err := r.base.DB(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, repo.Translate(err, "session expense")
}

// ListBySessions returns the expenses of several sessions.
func (r *Repository) ListBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.SessionExpense, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var out []models.SessionExpense
	err := r.base.DB(ctx).Where("session_id IN ?", sessionIDs).Find(&out).Error
	return out, repo.Translate(err, "session expense")
}

// Total sums expense amounts.
func Total(list []models.SessionExpense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range list {
		sum = sum.Add(e.Amount)
	}
	return sum
}
