package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/repo"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

const entity = "inventory item"

// Repository persists inventory items.
type Repository struct {
	base repo.Base
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository running inside tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return repo.Translate(r.base.DB(ctx).Create(item).Error, entity)
}

// Get loads an item owned by userID.
func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.base.DB(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error
	if err != nil {
		return nil, repo.Translate(err, entity)
	}
	return &item, nil
}

// ListByIDs returns the items with the given ids, in no particular order.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.InventoryItem
	if err := r.base.DB(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, repo.Translate(err, entity)
	}
	return items, nil
}

// UpdateLifecycle moves an item from one lifecycle state to another. The
// update only applies while the item is still in from.
func (r *Repository) UpdateLifecycle(ctx context.Context, id uuid.UUID, from, to enums.LifecycleStatus) error {
	res := r.base.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND lifecycle = ?", id, from).
		Update("lifecycle", to)
	return repo.RequireAffected(res, entity, "inventory item is not "+from.String())
}

// DeleteArchived removes an archived item.
func (r *Repository) DeleteArchived(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).
		Where("id = ? AND lifecycle = ?", id, enums.LifecycleStatusArchived).
		Delete(&models.InventoryItem{})
	if res.Error != nil {
		return repo.Translate(res.Error, entity)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only archived items can be deleted")
	}
	return nil
}
