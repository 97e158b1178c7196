package fees

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/repo"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// Repository reads the seeded platform_fee_schedules table.
type Repository struct {
	base repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(conn)}
}

// Schedule returns the stored schedule for platform. A platform with no row
// resolves through ScheduleFor.
func (r *Repository) Schedule(ctx context.Context, platform enums.Platform) (Schedule, error) {
	if !platform.IsValid() {
		return Schedule{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown platform %q", platform)
	}
	var row models.PlatformFeeSchedule
	err := r.base.DB(ctx).Where("platform = ?", platform).Take(&row).Error
	if err != nil {
		translated := repo.Translate(err, "fee schedule")
		if pkgerrors.IsCode(translated, pkgerrors.CodeNotFound) {
			return ScheduleFor(platform), nil
		}
		return Schedule{}, translated
	}
	return Schedule{
		CommissionPercent: row.CommissionPercent,
		ProcessingPercent: row.ProcessingPercent,
		ProcessingFixed:   row.ProcessingFixed,
	}, nil
}
