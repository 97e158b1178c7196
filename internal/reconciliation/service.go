package reconciliation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/showrunner-backend/internal/csvimport"
	"github.com/angelmondragon/showrunner-backend/internal/fees"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
)

type sessionLoader interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Session, error)
	ListItems(ctx context.Context, sessionID uuid.UUID) ([]models.SessionItem, error)
}

type applier interface {
	Apply(ctx context.Context, userID uuid.UUID, session *models.Session, rows []RowResult) (*ApplyReport, error)
}

// ScheduleSource resolves the fee schedule for a platform.
type ScheduleSource interface {
	Schedule(ctx context.Context, platform enums.Platform) (fees.Schedule, error)
}

// PreviewRequest carries an uploaded export and the match settings.
type PreviewRequest struct {
	Data        []byte
	Mapping     map[csvimport.Role]string
	Mode        enums.MatchMode
	StartNumber int
	Exclude     []string
	Include     []string
}

// ApplyRequest repeats the preview inputs plus the approved row numbers. A nil
// Rows approves every matched row.
type ApplyRequest struct {
	PreviewRequest
	Rows []int
}

// Preview is a match result with the mapping it ran under.
type Preview struct {
	SessionID uuid.UUID                 `json:"sessionId"`
	Headers   []string                  `json:"headers"`
	Mapping   map[csvimport.Role]string `json:"mapping"`
	Result    *Result                   `json:"result"`
}

// Service previews and applies sales exports against a session.
type Service interface {
	Preview(ctx context.Context, userID, sessionID uuid.UUID, req PreviewRequest) (*Preview, error)
	Apply(ctx context.Context, userID, sessionID uuid.UUID, req ApplyRequest) (*ApplyReport, error)
}

// ServiceDeps groups the collaborators of the reconciliation service.
type ServiceDeps struct {
	Sessions      sessionLoader
	Applier       applier
	// Schedules resolves stored fee schedules. Nil uses the built-in defaults.
	Schedules     ScheduleSource
	Metrics       *metrics.ReconciliationMetrics
	Logger        *logger.Logger
	AutoThreshold float64
}

type service struct {
	sessions      sessionLoader
	applier       applier
	schedules     ScheduleSource
	metrics       *metrics.ReconciliationMetrics
	logg          *logger.Logger
	autoThreshold float64
}

// NewService builds a reconciliation service.
func NewService(deps ServiceDeps) (Service, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if deps.Applier == nil {
		return nil, fmt.Errorf("applier required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		sessions:      deps.Sessions,
		applier:       deps.Applier,
		schedules:     deps.Schedules,
		metrics:       deps.Metrics,
		logg:          logg,
		autoThreshold: deps.AutoThreshold,
	}, nil
}

func (s *service) Preview(ctx context.Context, userID, sessionID uuid.UUID, req PreviewRequest) (*Preview, error) {
	_, imp, err := s.preview(ctx, userID, sessionID, req)
	if err != nil {
		return nil, err
	}
	res := imp.Result()
	s.metrics.ObserveRows(map[string]int{
		enums.MatchStatusMatched.String():   res.Summary.Matched,
		enums.MatchStatusUnmatched.String(): res.Summary.Unmatched,
		enums.MatchStatusInvalid.String():   res.Summary.Invalid,
		enums.MatchStatusExcluded.String():  res.Summary.Excluded,
	})
	s.logg.Info(s.logg.WithFields(s.logg.WithSessionID(ctx, sessionID.String()), map[string]any{
		"rows":         res.Summary.TotalRows,
		"matched":      res.Summary.Matched,
		"needs_review": res.Summary.NeedsReview,
		"mode":         res.Summary.ModeUsed,
	}), "reconciliation preview")
	return &Preview{
		SessionID: sessionID,
		Headers:   imp.Table().Headers,
		Mapping:   imp.Mapping().Named(imp.Table().Headers),
		Result:    res,
	}, nil
}

// Apply re-runs the match from the uploaded file so only rows the server
// classified as matched are written.
func (s *service) Apply(ctx context.Context, userID, sessionID uuid.UUID, req ApplyRequest) (*ApplyReport, error) {
	session, imp, err := s.preview(ctx, userID, sessionID, req.PreviewRequest)
	if err != nil {
		return nil, err
	}
	rows, err := imp.Approve(req.Rows)
	if err != nil {
		return nil, err
	}
	report, err := s.applier.Apply(ctx, userID, session, rows)
	if err != nil {
		return report, err
	}
	if _, err := imp.Applied(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) preview(ctx context.Context, userID, sessionID uuid.UUID, req PreviewRequest) (*models.Session, Import, error) {
	if len(req.Data) == 0 {
		return nil, Import{}, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	session, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, Import{}, err
	}
	items, err := s.sessions.ListItems(ctx, sessionID)
	if err != nil {
		return nil, Import{}, err
	}

	schedules, err := ResolveSchedules(ctx, s.schedules)
	if err != nil {
		return nil, Import{}, err
	}

	imp, err := Upload(sessionID, req.Data)
	if err != nil {
		return nil, Import{}, err
	}
	imp, err = imp.Map(req.Mapping, Options{
		Mode:          req.Mode,
		StartNumber:   req.StartNumber,
		AutoThreshold: s.autoThreshold,
		Exclude:       req.Exclude,
		Include:       req.Include,
		Channel:       session.Platform,
		Schedules:     schedules,
		FeeRate:       session.EstimatedFeeRate,
		SoldAt:        session.SessionDate,
	})
	if err != nil {
		return nil, Import{}, err
	}
	imp, err = imp.Preview(RunItemsFrom(items))
	if err != nil {
		return nil, Import{}, err
	}
	return session, imp, nil
}

// ResolveSchedules loads a schedule for every platform. A nil source yields a
// nil map, leaving the built-in defaults in effect.
func ResolveSchedules(ctx context.Context, src ScheduleSource) (map[enums.Platform]fees.Schedule, error) {
	if src == nil {
		return nil, nil
	}
	out := make(map[enums.Platform]fees.Schedule)
	for _, p := range enums.Platforms() {
		schedule, err := src.Schedule(ctx, p)
		if err != nil {
			return nil, err
		}
		out[p] = schedule
	}
	return out, nil
}
