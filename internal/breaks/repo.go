package breaks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/repo"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
)

// Repository reads breaks and their mixer boxes.
type Repository struct {
	base repo.Base
}

// NewRepository builds a breaks repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, b *models.Break, boxes []models.BreakBox) error {
	return r.base.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return repo.Translate(err, "break")
		}
		if len(boxes) == 0 {
			return nil
		}
		for i := range boxes {
			boxes[i].BreakID = b.ID
		}
		return repo.Translate(tx.Create(&boxes).Error, "break box")
	})
}

// ListBySession returns a session's breaks in creation order.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Break, error) {
	var out []models.Break
	err := r.base.DB(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, repo.Translate(err, "break")
}

// ListBoxesByBreak returns the mixer lines of one break.
func (r *Repository) ListBoxesByBreak(ctx context.Context, breakID uuid.UUID) ([]models.BreakBox, error) {
	var out []models.BreakBox
	err := r.base.DB(ctx).Where("break_id = ?", breakID).Find(&out).Error
	return out, repo.Translate(err, "break box")
}

// BoxesByBreak loads the boxes of several breaks keyed by break id.
func (r *Repository) BoxesByBreak(ctx context.Context, breakIDs []uuid.UUID) (map[uuid.UUID][]models.BreakBox, error) {
	out := make(map[uuid.UUID][]models.BreakBox, len(breakIDs))
	if len(breakIDs) == 0 {
		return out, nil
	}
	var rows []models.BreakBox
	if err := r.base.DB(ctx).Where("break_id IN ?", breakIDs).Find(&rows).Error; err != nil {
		return nil, repo.Translate(err, "break box")
	}
	for _, box := range rows {
		out[box.BreakID] = append(out[box.BreakID], box)
	}
	return out, nil
}
