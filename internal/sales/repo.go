// Package sales persists realised sale records.
package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/repo"
	"github.com/angelmondragon/showrunner-backend/pkg/db"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

const entity = "sale"

// Repository stores sales. One sale per item is enforced by the
// sales_item_id_key unique index.
type Repository struct {
	base repo.Base
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(conn)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// Create inserts sale, returning a Conflict when the item already has one.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	err := r.base.DB(ctx).Create(sale).Error
	if err != nil && db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item already has a sale").
			WithDetails(map[string]any{"itemId": sale.ItemID})
	}
	return repo.Translate(err, entity)
}

// ExistsForItem reports whether a sale was already recorded for itemID.
func (r *Repository) ExistsForItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Sale{}).Where("item_id = ?", itemID).Count(&count).Error
	if err != nil {
		return false, repo.Translate(err, entity)
	}
	return count > 0, nil
}

// ListBySession returns a session's sales ordered by sale time.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Sale, error) {
	var out []models.Sale
	err := r.base.DB(ctx).
		Where("session_id = ?", sessionID).
		Order("sold_at ASC, id ASC").
		Find(&out).Error
	return out, repo.Translate(err, entity)
}

// ListBySessions returns the sales of several sessions.
func (r *Repository) ListBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.Sale, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var out []models.Sale
	err := r.base.DB(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("sold_at ASC, id ASC").
		Find(&out).Error
	return out, repo.Translate(err, entity)
}

// ListByUserInRange returns a user's sales sold within [from, to].
func (r *Repository) ListByUserInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Sale, error) {
	var out []models.Sale
	err := r.base.DB(ctx).
		Where("user_id = ? AND sold_at >= ? AND sold_at <= ?", userID, from, to).
		Order("sold_at ASC, id ASC").
		Find(&out).Error
	return out, repo.Translate(err, entity)
}
