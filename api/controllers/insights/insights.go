package insights

import (
	"net/http"

	"github.com/angelmondragon/showrunner-backend/api/middleware"
	"github.com/angelmondragon/showrunner-backend/api/responses"
	"github.com/angelmondragon/showrunner-backend/internal/insights"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
)

// Report serves the seller's profitability report over reconciled sessions.
func Report(service insights.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := middleware.UserUUID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter, err := resolveFilter(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := service.Report(ctx, userID, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
