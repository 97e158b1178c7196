package reconciliation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/csvimport"
	"github.com/angelmondragon/showrunner-backend/internal/reconciliation"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

const maxStartNumber = 1_000_000

// Settings are the server defaults applied to every upload.
type Settings struct {
	DefaultStart   int
	MaxUploadBytes int64
}

type exportFormat string

const (
	formatJSON exportFormat = "json"
	formatCSV  exportFormat = "csv"
	formatXLSX exportFormat = "xlsx"
)

// parsePreview reads the upload and its match settings. Settings come from
// multipart form fields or the query string:
//
//	mode=auto|item_number|sequence  startNumber=N
//	exclude=kw,kw  include=kw,kw  mapping={"item_number":"Lot"}
func parsePreview(r *http.Request, s Settings) (reconciliation.PreviewRequest, error) {
	data, err := validators.ReadUpload(r, s.MaxUploadBytes)
	if err != nil {
		return reconciliation.PreviewRequest{}, err
	}

	req := reconciliation.PreviewRequest{
		Data:    data,
		Mode:    enums.MatchModeAuto,
		Exclude: validators.SplitList(validators.Param(r, "exclude")),
		Include: validators.SplitList(validators.Param(r, "include")),
	}
	if raw := validators.Param(r, "mode"); raw != "" {
		mode, err := enums.ParseMatchMode(strings.ToLower(raw))
		if err != nil {
			return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode").
				WithDetails(map[string]any{"field": "mode"})
		}
		req.Mode = mode
	}

	start := s.DefaultStart
	if start < 1 {
		start = 1
	}
	if req.StartNumber, err = validators.ParseQueryInt(r, "startNumber", start, 1, maxStartNumber); err != nil {
		return req, err
	}

	if raw := validators.Param(r, "mapping"); raw != "" {
		var mapping map[csvimport.Role]string
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "mapping must be a JSON object of role to header").
				WithDetails(map[string]any{"field": "mapping"})
		}
		req.Mapping = mapping
	}
	return req, nil
}

func parseApply(r *http.Request, s Settings) (reconciliation.ApplyRequest, error) {
	preview, err := parsePreview(r, s)
	if err != nil {
		return reconciliation.ApplyRequest{}, err
	}
	rows, err := validators.ParseQueryInts(r, "rows")
	if err != nil {
		return reconciliation.ApplyRequest{}, err
	}
	return reconciliation.ApplyRequest{PreviewRequest: preview, Rows: rows}, nil
}

func parseFormat(r *http.Request) (exportFormat, error) {
	switch f := exportFormat(strings.ToLower(validators.Param(r, "format"))); f {
	case "", formatJSON:
		return formatJSON, nil
	case formatCSV, formatXLSX:
		return f, nil
	default:
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported format %q", f).
			WithDetails(map[string]any{"field": "format", "allowed": []exportFormat{formatJSON, formatCSV, formatXLSX}})
	}
}
