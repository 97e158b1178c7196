package reconciliation

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/showrunner-backend/internal/csvimport"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// Import is an immutable snapshot of one reconciliation import. Each step
// returns a new snapshot; the receiver is never modified.
type Import struct {
	stage     enums.ImportStage
	sessionID uuid.UUID
	table     *csvimport.Table
	mapping   csvimport.Mapping
	options   Options
	result    *Result
	report    *ApplyReport
}

// Upload parses an export and starts an import with an inferred mapping.
func Upload(sessionID uuid.UUID, data []byte) (Import, error) {
	table, err := csvimport.Load(data)
	if err != nil {
		return Import{}, err
	}
	return Import{
		stage:     enums.ImportStageUploaded,
		sessionID: sessionID,
		table:     table,
		mapping:   csvimport.InferMapping(table.Headers),
	}, nil
}

// Map confirms the column mapping, applying overrides by header name. It may
// be repeated to remap before applying.
func (imp Import) Map(overrides map[csvimport.Role]string, opts Options) (Import, error) {
	if err := imp.require(enums.ImportStageUploaded, enums.ImportStageMapped, enums.ImportStagePreviewed); err != nil {
		return Import{}, err
	}
	mapping, err := imp.mapping.Override(imp.table.Headers, overrides)
	if err != nil {
		return Import{}, err
	}
	next := imp
	next.stage = enums.ImportStageMapped
	next.mapping = mapping
	next.options = opts
	next.result = nil
	return next, nil
}

// Preview runs the matcher against the session's run list.
func (imp Import) Preview(items []RunItem) (Import, error) {
	if err := imp.require(enums.ImportStageMapped, enums.ImportStagePreviewed); err != nil {
		return Import{}, err
	}
	result, err := Match(imp.table, imp.mapping, items, imp.options)
	if err != nil {
		return Import{}, err
	}
	next := imp
	next.stage = enums.ImportStagePreviewed
	next.result = result
	return next, nil
}

// Approve selects matched rows for apply by row number. A nil selection
// approves every matched row. Naming a row that is not matched fails.
func (imp Import) Approve(rows []int) ([]RowResult, error) {
	if err := imp.require(enums.ImportStagePreviewed); err != nil {
		return nil, err
	}
	if rows == nil {
		return imp.result.Matched(), nil
	}
	byRow := make(map[int]RowResult, len(imp.result.Rows))
	for _, r := range imp.result.Rows {
		byRow[r.Row] = r
	}
	out := make([]RowResult, 0, len(rows))
	seen := make(map[int]struct{}, len(rows))
	for _, n := range rows {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		r, ok := byRow[n]
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "row %d is not in the import", n)
		}
		if r.Status != enums.MatchStatusMatched {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "row %d is %s and cannot be applied", n, r.Status).
				WithDetails(map[string]any{"row": n, "status": r.Status, "errors": r.Errors})
		}
		out = append(out, r)
	}
	return out, nil
}

// Applied records the apply outcome and closes the import.
func (imp Import) Applied(report *ApplyReport) (Import, error) {
	if err := imp.require(enums.ImportStagePreviewed); err != nil {
		return Import{}, err
	}
	next := imp
	next.stage = enums.ImportStageApplied
	next.report = report
	return next, nil
}

func (imp Import) require(allowed ...enums.ImportStage) error {
	for _, s := range allowed {
		if imp.stage == s {
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "import is %s", imp.stageLabel()).
		WithDetails(map[string]any{"stage": imp.stage, "allowed": allowed})
}

func (imp Import) stageLabel() string {
	if imp.stage == "" {
		return "not started"
	}
	return imp.stage.String()
}

func (imp Import) Stage() enums.ImportStage { return imp.stage }
func (imp Import) SessionID() uuid.UUID { return imp.sessionID }
func (imp Import) Table() *csvimport.Table { return imp.table }
func (imp Import) Mapping() csvimport.Mapping { return imp.mapping.Clone() }
func (imp Import) Result() *Result { return imp.result }
func (imp Import) Report() *ApplyReport { return imp.report }
