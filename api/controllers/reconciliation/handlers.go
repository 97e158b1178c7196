package reconciliation

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/showrunner-backend/api/middleware"
	"github.com/angelmondragon/showrunner-backend/api/responses"
	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/reconciliation"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
)

const (
	sessionIDParam = "sessionId"
	csvContentType = "text/csv"
	xlsxContent    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func scope(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.UserUUID(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionID, err := validators.PathUUID(r, sessionIDParam)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, sessionID, nil
}

// Preview matches an uploaded export against the session run list. With
// format=csv or format=xlsx the preview is returned as a download.
func Preview(svc reconciliation.Service, s Settings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, sessionID, err := scope(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req, err := parsePreview(r, s)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		format, err := parseFormat(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		preview, err := svc.Preview(ctx, userID, sessionID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch format {
		case formatCSV, formatXLSX:
			writeExport(w, r, logg, format, sessionID, preview.Result)
		default:
			responses.WriteSuccessWarnings(w, preview, reviewWarnings(preview.Result))
		}
	}
}

// Apply re-runs the match on the uploaded export and commits the approved
// rows. rows=1,4 narrows the approval; omitting it approves every matched row.
func Apply(svc reconciliation.Service, s Settings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, sessionID, err := scope(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req, err := parseApply(r, s)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Apply(ctx, userID, sessionID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var warnings []string
		if report.PartialFailure {
			warnings = append(warnings, fmt.Sprintf("%d rows failed and were skipped", len(report.Failed)))
		}
		responses.WriteSuccessWarnings(w, report, warnings)
	}
}

func writeExport(w http.ResponseWriter, r *http.Request, logg *logger.Logger, format exportFormat, sessionID uuid.UUID, res *reconciliation.Result) {
	var buf bytes.Buffer
	var err error
	contentType := csvContentType
	if format == formatXLSX {
		contentType = xlsxContent
		err = reconciliation.WritePreviewXLSX(&buf, res)
	} else {
		err = reconciliation.WritePreviewCSV(&buf, res)
	}
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteAttachment(w, contentType, fmt.Sprintf("preview-%s.%s", sessionID, format), buf.Bytes())
}

func reviewWarnings(res *reconciliation.Result) []string {
	if res == nil || res.Summary.NeedsReview == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%d of %d rows need review", res.Summary.NeedsReview, res.Summary.TotalRows)}
}
