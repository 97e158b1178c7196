// Package sessions drives the session lifecycle and the planning calculators
// that run against a stored session.
package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/internal/breakeven"
	"github.com/angelmondragon/showrunner-backend/internal/breaks"
	"github.com/angelmondragon/showrunner-backend/internal/expenses"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
)

type sessionRepository interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.SessionStatus, at time.Time) error
	ListItems(ctx context.Context, sessionID uuid.UUID) ([]models.SessionItem, error)
	NextSlot(ctx context.Context, sessionID uuid.UUID) (int, int, error)
	AddItem(ctx context.Context, item *models.SessionItem) error
	RemoveItem(ctx context.Context, sessionID, sessionItemID uuid.UUID) error
}

type itemRepository interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.InventoryItem, error)
}

type breakRepository interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Break, error)
	BoxesByBreak(ctx context.Context, breakIDs []uuid.UUID) (map[uuid.UUID][]models.BreakBox, error)
}

type expenseRepository interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionExpense, error)
}

// Service exposes session lifecycle and planning operations.
type Service interface {
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error)
	Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error)
	Unfinalize(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error)
	AddItem(ctx context.Context, userID, sessionID, itemID uuid.UUID, via enums.ItemSource) (*models.SessionItem, error)
	RemoveItem(ctx context.Context, userID, sessionID, sessionItemID uuid.UUID) error
	Breakeven(ctx context.Context, userID, sessionID uuid.UUID) (*breakeven.Result, error)
	BreakEconomics(ctx context.Context, userID, sessionID uuid.UUID) (*breaks.SessionEconomics, error)
}

// Deps groups the collaborators of the session service.
type Deps struct {
	Sessions sessionRepository
	Items    itemRepository
	Breaks   breakRepository
	Expenses expenseRepository
	Metrics  *metrics.CalculatorMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	sessions sessionRepository
	items    itemRepository
	breaks   breakRepository
	expenses expenseRepository
	metrics  *metrics.CalculatorMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a session service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Sessions == nil:
		return nil, fmt.Errorf("sessions repository required")
	case deps.Items == nil:
		return nil, fmt.Errorf("items repository required")
	case deps.Breaks == nil:
		return nil, fmt.Errorf("breaks repository required")
	case deps.Expenses == nil:
		return nil, fmt.Errorf("expenses repository required")
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		sessions: deps.Sessions,
		items:    deps.Items,
		breaks:   deps.Breaks,
		expenses: deps.Expenses,
		metrics:  deps.Metrics,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	return s.sessions.Get(ctx, userID, sessionID)
}

func (s *service) Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	return s.transition(ctx, userID, sessionID, enums.SessionStatusFinalized)
}

func (s *service) Unfinalize(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	return s.transition(ctx, userID, sessionID, enums.SessionStatusDraft)
}

func (s *service) transition(ctx context.Context, userID, sessionID uuid.UUID, to enums.SessionStatus) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	from := sess.Status
	if !from.CanTransitionTo(to) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move session from %s to %s", from, to).
			WithDetails(map[string]any{"from": from, "to": to})
	}
	at := s.now().UTC()
	if err := s.sessions.UpdateStatus(ctx, sessionID, from, to, at); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithSessionID(ctx, sessionID.String()), map[string]any{
		"from": from,
		"to":   to,
	}), "session status changed")
	return s.sessions.Get(ctx, userID, sessionID)
}

func (s *service) AddItem(ctx context.Context, userID, sessionID, itemID uuid.UUID, via enums.ItemSource) (*models.SessionItem, error) {
	sess, err := s.editable(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if via == "" {
		via = enums.ItemSourceManual
	}
	if !via.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown item source %q", via)
	}

	item, err := s.items.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Lifecycle != enums.LifecycleStatusActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "item is %s and cannot join a run list", item.Lifecycle)
	}

	current, err := s.sessions.ListItems(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	for _, si := range current {
		if si.ItemID == itemID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item is already in this session").
				WithDetails(map[string]any{"itemNumber": si.ItemNumber})
		}
	}

	number, position, err := s.sessions.NextSlot(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	si := &models.SessionItem{
		SessionID:  sess.ID,
		ItemID:     itemID,
		ItemNumber: number,
		Position:   position,
		AddedVia:   via,
		Item:       *item,
	}
	if err := s.sessions.AddItem(ctx, si); err != nil {
		return nil, err
	}
	return si, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, sessionID, sessionItemID uuid.UUID) error {
	if _, err := s.editable(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.sessions.RemoveItem(ctx, sessionID, sessionItemID)
}

func (s *service) editable(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Status.PlanningEditable() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "run list is locked while session is %s", sess.Status)
	}
	return sess, nil
}

// planning is the stored state both calculators read.
type planning struct {
	session  *models.Session
	items    []models.SessionItem
	breaks   []models.Break
	boxes    map[uuid.UUID][]models.BreakBox
	expenses decimal.Decimal
}

func (s *service) loadPlanning(ctx context.Context, userID, sessionID uuid.UUID) (*planning, error) {
	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	items, err := s.sessions.ListItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	list, err := s.breaks.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	boxes, err := s.breaks.BoxesByBreak(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines, err := s.expenses.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &planning{session: sess, items: items, breaks: list, boxes: boxes, expenses: expenses.Total(lines)}, nil
}

func (p *planning) itemsCost() decimal.Decimal {
	sum := decimal.Zero
	for _, si := range p.items {
		sum = sum.Add(si.Item.CostBasis)
	}
	return sum
}

func (s *service) Breakeven(ctx context.Context, userID, sessionID uuid.UUID) (*breakeven.Result, error) {
	p, err := s.loadPlanning(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess := p.session

	in := breakeven.Input{
		ShowType:            sess.ShowType,
		InventoryCost:       p.itemsCost(),
		BreaksCost:          decimal.Zero,
		TotalExpenses:       p.expenses,
		FeeRate:             sess.EstimatedFeeRate,
		ProfitTargetAmount:  sess.ProfitTargetAmount,
		ProfitTargetPercent: sess.ProfitTargetPercent,
		ItemCount:           len(p.items),
		SinglesAllocation:   sess.RevenueAllocationSinglesPercent,
		SellThroughPercent:  sess.ExpectedSellThroughPercent,
	}
	for _, b := range p.breaks {
		cost, err := breaks.BoxCost(b, p.boxes[b.ID])
		if err != nil {
			return nil, err
		}
		in.BreaksCost = in.BreaksCost.Add(cost)
		in.Breaks = append(in.Breaks, breakeven.Break{ID: b.ID, Title: b.Title, SpotCount: b.SpotCount, BoxCost: cost})
	}

	res, err := breakeven.Calculate(in)
	s.metrics.Observe("breakeven", err)
	return res, err
}

func (s *service) BreakEconomics(ctx context.Context, userID, sessionID uuid.UUID) (*breaks.SessionEconomics, error) {
	p, err := s.loadPlanning(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	res, err := breaks.ForSession(p.breaks, p.boxes, p.session.EstimatedFeeRate, p.expenses, p.itemsCost())
	s.metrics.Observe("break_economics", err)
	return res, err
}
