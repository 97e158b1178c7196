package insights

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/insights"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

const maxSampleSize = 1000

func resolveFilter(r *http.Request) (insights.Filter, error) {
	query := r.URL.Query()
	var f insights.Filter

	from, err := insights.DateParam(strings.TrimSpace(query.Get("dateFrom")))
	if err != nil {
		return f, err
	}
	to, err := insights.DateParam(strings.TrimSpace(query.Get("dateTo")))
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to

	if raw := filterValue(query.Get("platform")); raw != "" {
		p, err := enums.ParsePlatform(raw)
		if err != nil {
			return f, pkgerrors.New(pkgerrors.CodeValidation, "invalid platform").WithDetails(map[string]any{"field": "platform"})
		}
		f.Platform = p
	}
	if raw := filterValue(query.Get("showType")); raw != "" {
		st, err := enums.ParseShowType(raw)
		if err != nil {
			return f, pkgerrors.New(pkgerrors.CodeValidation, "invalid showType").WithDetails(map[string]any{"field": "showType"})
		}
		f.ShowType = st
	}

	if f.IncludeExpenses, err = validators.ParseQueryBool(r, "includeExpenses", false); err != nil {
		return f, err
	}
	// 0 lets the service apply its configured default
	if f.MinSampleSize, err = validators.ParseQueryInt(r, "minSampleSize", 0, 1, maxSampleSize); err != nil {
		return f, err
	}
	return f, nil
}

// filterValue normalizes an enum query value. "all" means no filter.
func filterValue(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "all" {
		return ""
	}
	return v
}
