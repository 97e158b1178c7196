package controllers

import (
	"net/http"

	"github.com/angelmondragon/showrunner-backend/api/responses"
	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/breakeven"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
)

// BreakevenQuote runs the calculator on a plan posted by the caller, without
// touching stored sessions. Range checks surface as CONFIGURATION_ERROR.
func BreakevenQuote(m *metrics.CalculatorMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in breakeven.Input
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := breakeven.Calculate(in)
		m.Observe("breakeven", err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res.Rounded())
	}
}
