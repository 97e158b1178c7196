package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/api/responses"
	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/fees"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
)

// ScheduleSource resolves a platform's fee schedule.
type ScheduleSource interface {
	Schedule(ctx context.Context, platform enums.Platform) (fees.Schedule, error)
}

type feeQuoteRequest struct {
	Price       decimal.Decimal  `json:"price" validate:"gte=0"`
	Platform    string           `json:"platform"`
	FeeRate     *decimal.Decimal `json:"feeRate,omitempty" validate:"omitempty,gte=0,lte=1"`
	FeeOverride *decimal.Decimal `json:"feeOverride,omitempty" validate:"omitempty,gte=0"`
}

type feeQuoteResponse struct {
	Platform  enums.Platform `json:"platform,omitempty"`
	Schedule  fees.Schedule  `json:"schedule"`
	Breakdown fees.Breakdown `json:"breakdown"`
	Net       string         `json:"net"`
}

// FeeQuote prices a single sale. feeRate takes precedence over the platform schedule.
func FeeQuote(schedules ScheduleSource, m *metrics.CalculatorMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload feeQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var (
			platform enums.Platform
			schedule fees.Schedule
		)
		if payload.FeeRate != nil {
			schedule = fees.FlatRate(*payload.FeeRate)
		} else {
			raw := strings.ToLower(strings.TrimSpace(payload.Platform))
			if raw == "" {
				raw = string(enums.PlatformOther)
			}
			p, err := enums.ParsePlatform(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform"))
				return
			}
			platform = p
			if schedules == nil {
				schedule = fees.ScheduleFor(p)
			} else if schedule, err = schedules.Schedule(ctx, p); err != nil {
				m.Observe("fees", err)
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		breakdown := fees.Calculate(payload.Price, schedule, payload.FeeOverride)
		m.Observe("fees", nil)
		responses.WriteSuccess(w, feeQuoteResponse{
			Platform:  platform,
			Schedule:  schedule,
			Breakdown: breakdown,
			Net:       payload.Price.Sub(breakdown.TotalFees).StringFixed(2),
		})
	}
}
