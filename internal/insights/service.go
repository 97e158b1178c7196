package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"

	"github.com/angelmondragon/showrunner-backend/internal/sessions"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
)

type sessionRepository interface {
	ListReconciled(ctx context.Context, userID uuid.UUID, filter sessions.ReconciledFilter) ([]models.Session, error)
	ListItemsBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.SessionItem, error)
}

type saleRepository interface {
	ListBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.Sale, error)
}

type expenseRepository interface {
	ListBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]models.SessionExpense, error)
}

type itemRepository interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.InventoryItem, error)
}

// Service builds insights reports for a seller.
type Service interface {
	Report(ctx context.Context, userID uuid.UUID, filter Filter) (*Report, error)
}

// Deps groups the collaborators of the insights service.
type Deps struct {
	Sessions       sessionRepository
	Sales          saleRepository
	Expenses       expenseRepository
	Items          itemRepository
	Metrics        *metrics.CalculatorMetrics
	Logger         *logger.Logger
	DefaultMinSize int
}

type service struct {
	sessions       sessionRepository
	sales          saleRepository
	expenses       expenseRepository
	items          itemRepository
	metrics        *metrics.CalculatorMetrics
	logg           *logger.Logger
	defaultMinSize int
}

// NewService builds an insights service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Sessions == nil:
		return nil, fmt.Errorf("sessions repository required")
	case deps.Sales == nil:
		return nil, fmt.Errorf("sales repository required")
	case deps.Expenses == nil:
		return nil, fmt.Errorf("expenses repository required")
	case deps.Items == nil:
		return nil, fmt.Errorf("items repository required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	minSize := deps.DefaultMinSize
	if minSize < 1 {
		minSize = 1
	}
	return &service{
		sessions:       deps.Sessions,
		sales:          deps.Sales,
		expenses:       deps.Expenses,
		items:          deps.Items,
		metrics:        deps.Metrics,
		logg:           logg,
		defaultMinSize: minSize,
	}, nil
}

func (s *service) Report(ctx context.Context, userID uuid.UUID, filter Filter) (*Report, error) {
	filter, err := s.normalize(filter)
	s.metrics.Observe("insights", err)
	if err != nil {
		return nil, err
	}

	ds, err := s.load(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	report := Aggregate(filter, ds)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"sessions": report.Profile.Sessions,
		"sales":    report.Profile.ItemsSold,
	}), "insights aggregated")
	return &report, nil
}

func (s *service) normalize(f Filter) (Filter, error) {
	if f.MinSampleSize == 0 {
		f.MinSampleSize = s.defaultMinSize
	}
	if f.MinSampleSize < 1 {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "minSampleSize must be at least 1")
	}
	if f.Platform != "" && !f.Platform.IsValid() {
		return f, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown platform %q", f.Platform)
	}
	if f.ShowType != "" && !f.ShowType.IsValid() {
		return f, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown show type %q", f.ShowType)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "dateTo is before dateFrom")
	}
	return f, nil
}

// reconciledFilter widens the calendar dates to whole days.
func reconciledFilter(f Filter) sessions.ReconciledFilter {
	out := sessions.ReconciledFilter{Platform: f.Platform, ShowType: f.ShowType}
	if f.From != nil {
		from := now.With(f.From.UTC()).BeginningOfDay()
		out.From = &from
	}
	if f.To != nil {
		to := now.With(f.To.UTC()).EndOfDay()
		out.To = &to
	}
	return out
}

func (s *service) load(ctx context.Context, userID uuid.UUID, f Filter) (Dataset, error) {
	list, err := s.sessions.ListReconciled(ctx, userID, reconciledFilter(f))
	if err != nil {
		return Dataset{}, err
	}
	ds := Dataset{Sessions: list, Items: map[uuid.UUID]models.InventoryItem{}}
	if len(list) == 0 {
		return ds, nil
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, sess := range list {
		ids = append(ids, sess.ID)
	}

	if ds.SessionItems, err = s.sessions.ListItemsBySessions(ctx, ids); err != nil {
		return Dataset{}, err
	}
	if ds.Sales, err = s.sales.ListBySessions(ctx, ids); err != nil {
		return Dataset{}, err
	}
	if ds.Expenses, err = s.expenses.ListBySessions(ctx, ids); err != nil {
		return Dataset{}, err
	}

	for _, si := range ds.SessionItems {
		ds.Items[si.ItemID] = si.Item
	}
	var missing []uuid.UUID
	for _, sale := range ds.Sales {
		if _, ok := ds.Items[sale.ItemID]; !ok {
			missing = append(missing, sale.ItemID)
		}
	}
	if len(missing) > 0 {
		extra, err := s.items.ListByIDs(ctx, missing)
		if err != nil {
			return Dataset{}, err
		}
		for _, it := range extra {
			ds.Items[it.ID] = it
		}
	}
	return ds, nil
}

// DateParam parses a dateFrom or dateTo query value.
func DateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid date %q, expected YYYY-MM-DD", raw)
	}
	return &t, nil
}
