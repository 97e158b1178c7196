package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/repo"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

const entity = "session"

// ReconciledFilter narrows ListReconciled. Zero values mean no constraint.
type ReconciledFilter struct {
	From     *time.Time
	To       *time.Time
	Platform enums.Platform
	ShowType enums.ShowType
}

// Repository persists sessions and their run lists.
type Repository struct {
	base repo.Base
}

// NewRepository builds a sessions repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(conn)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	return repo.Translate(r.base.DB(ctx).Create(s).Error, entity)
}

// Get loads a session owned by userID.
func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	err := r.base.DB(ctx).Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if err != nil {
		return nil, repo.Translate(err, entity)
	}
	return &s, nil
}

// UpdateStatus moves a session from one status to another, stamping the
// timestamp that belongs to the target status. Unfinalizing clears
// finalized_at.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.SessionStatus, at time.Time) error {
	updates := map[string]any{"status": to, "updated_at": at}
	switch to {
	case enums.SessionStatusFinalized:
		updates["finalized_at"] = at
	case enums.SessionStatusReconciled:
		updates["reconciled_at"] = at
	case enums.SessionStatusDraft:
		updates["finalized_at"] = nil
	}
	res := r.base.DB(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return repo.RequireAffected(res, entity, "session is not "+from.String())
}

// ListItems returns a session's run list with inventory items, by item number.
func (r *Repository) ListItems(ctx context.Context, sessionID uuid.UUID) ([]models.SessionItem, error) {
	var out []models.SessionItem
	err := r.base.DB(ctx).
		Preload("Item").
		Where("session_id = ?", sessionID).
		Order("item_number ASC").
		Find(&out).Error
	return out, repo.Translate(err, "session item")
}

// ListItemsBySessions returns the run lists of several sessions.
func (r *Repository) ListItemsBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.SessionItem, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var out []models.SessionItem
	err := r.base.DB(ctx).
		Preload("Item").
		Where("session_id IN ?", sessionIDs).
		Order("session_id ASC, item_number ASC").
		Find(&out).Error
	return out, repo.Translate(err, "session item")
}

// NextSlot returns the next item number and position for a session.
func (r *Repository) NextSlot(ctx context.Context, sessionID uuid.UUID) (int, int, error) {
	var row struct {
		MaxNumber   int
		MaxPosition int
	}
	err := r.base.DB(ctx).
		Model(&models.SessionItem{}).
		Select("COALESCE(MAX(item_number), 0) AS max_number, COALESCE(MAX(position), 0) AS max_position").
		Where("session_id = ?", sessionID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, repo.Translate(err, "session item")
	}
	return row.MaxNumber + 1, row.MaxPosition + 1, nil
}

func (r *Repository) AddItem(ctx context.Context, item *models.SessionItem) error {
	return repo.Translate(r.base.DB(ctx).Create(item).Error, "session item")
}

// RemoveItem deletes one run-list entry, reporting NotFound when absent.
func (r *Repository) RemoveItem(ctx context.Context, sessionID, sessionItemID uuid.UUID) error {
	res := r.base.DB(ctx).
		Where("id = ? AND session_id = ?", sessionItemID, sessionID).
		Delete(&models.SessionItem{})
	if res.Error != nil {
		return repo.Translate(res.Error, "session item")
	}
	if res.RowsAffected == 0 {
		return repo.Translate(gorm.ErrRecordNotFound, "session item")
	}
	return nil
}

// ListReconciled returns a user's reconciled sessions matching filter,
// ordered by reconciliation time.
func (r *Repository) ListReconciled(ctx context.Context, userID uuid.UUID, filter ReconciledFilter) ([]models.Session, error) {
	q := r.base.DB(ctx).
		Where("user_id = ? AND status = ?", userID, enums.SessionStatusReconciled)
	if filter.From != nil {
		q = q.Where("reconciled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("reconciled_at <= ?", *filter.To)
	}
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.ShowType != "" {
		q = q.Where("show_type = ?", filter.ShowType)
	}
	var out []models.Session
	err := q.Order("reconciled_at ASC, id ASC").Find(&out).Error
	return out, repo.Translate(err, entity)
}
