package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/inventory"
	"github.com/angelmondragon/showrunner-backend/internal/sales"
	"github.com/angelmondragon/showrunner-backend/internal/sessions"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
	"github.com/angelmondragon/showrunner-backend/pkg/redis"
)

const lockScope = "reconcile"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Locker serialises applies for one session.
type Locker interface {
	Acquire(ctx context.Context, scope, id string, ttl time.Duration) (func(context.Context) error, error)
}

type saleWriter interface {
	ExistsForItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	Create(ctx context.Context, sale *models.Sale) error
}

type itemWriter interface {
	UpdateLifecycle(ctx context.Context, id uuid.UUID, from, to enums.LifecycleStatus) error
}

type sessionWriter interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.SessionStatus, at time.Time) error
}

// TxStores are the writers bound to one transaction.
type TxStores struct {
	Sales    saleWriter
	Items    itemWriter
	Sessions sessionWriter
}

// Binder returns writers running inside tx.
type Binder func(tx *gorm.DB) TxStores

// GormBinder binds the gorm repositories to a transaction.
func GormBinder(s *sales.Repository, i *inventory.Repository, sess *sessions.Repository) Binder {
	return func(tx *gorm.DB) TxStores {
		return TxStores{Sales: s.WithTx(tx), Items: i.WithTx(tx), Sessions: sess.WithTx(tx)}
	}
}

// AppliedRow is a row that produced a sale.
type AppliedRow struct {
	Row       int             `json:"row"`
	SaleID    uuid.UUID       `json:"saleId"`
	ItemID    uuid.UUID       `json:"itemId"`
	SoldPrice decimal.Decimal `json:"soldPrice"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

// RowFailure is a row whose writes were rolled back.
type RowFailure struct {
	Row    int            `json:"row"`
	ItemID uuid.UUID      `json:"itemId"`
	Code   pkgerrors.Code `json:"code"`
	Reason string         `json:"reason"`
}

// ApplyReport is the outcome of one apply.
type ApplyReport struct {
	SessionID      uuid.UUID           `json:"sessionId"`
	Status         enums.SessionStatus `json:"status"`
	ReconciledAt   *time.Time          `json:"reconciledAt,omitempty"`
	Applied        []AppliedRow        `json:"applied"`
	Failed         []RowFailure        `json:"failed"`
	GrossRevenue   decimal.Decimal     `json:"grossRevenue"`
	NetProfit      decimal.Decimal     `json:"netProfit"`
	PartialFailure bool                `json:"partialFailure"`
}

// Applier commits approved matches.
type Applier struct {
	tx      txRunner
	bind    Binder
	locker  Locker
	lockTTL time.Duration
	metrics *metrics.ReconciliationMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// ApplierConfig groups the Applier collaborators. Locker and Metrics are optional.
type ApplierConfig struct {
	Tx      txRunner
	Bind    Binder
	Locker  Locker
	LockTTL time.Duration
	Metrics *metrics.ReconciliationMetrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

// NewApplier validates cfg and builds an Applier.
func NewApplier(cfg ApplierConfig) (*Applier, error) {
	if cfg.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.Bind == nil {
		return nil, fmt.Errorf("store binder required")
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Applier{
		tx:      cfg.Tx,
		bind:    cfg.Bind,
		locker:  cfg.Locker,
		lockTTL: cfg.LockTTL,
		metrics: cfg.Metrics,
		logg:    cfg.Logger,
		now:     cfg.Clock,
	}, nil
}

// Apply writes one sale per approved row and then marks the session
// RECONCILED. Row failures are reported and skipped. A failed status write
// fails the call with the row results attached, since earlier rows may
// already be committed.
func (a *Applier) Apply(ctx context.Context, userID uuid.UUID, session *models.Session, rows []RowResult) (*ApplyReport, error) {
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session required")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no approved rows to apply")
	}
	for _, row := range rows {
		if row.Status != enums.MatchStatusMatched || row.Proposed == nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "row %d is %s and cannot be applied", row.Row, row.Status).
				WithDetails(map[string]any{"row": row.Row, "status": row.Status})
		}
	}
	if session.Status != enums.SessionStatusFinalized {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "session is %s; finalize it before reconciling", session.Status)
	}

	ctx = a.logg.WithSessionID(ctx, session.ID.String())
	release, err := a.lock(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			a.logg.Warn(a.logg.WithField(ctx, "error", relErr.Error()), "release reconcile lock")
		}
	}()

	started := a.now()
	report := &ApplyReport{
		SessionID:    session.ID,
		Status:       session.Status,
		Applied:      []AppliedRow{},
		Failed:       []RowFailure{},
		GrossRevenue: decimal.Zero,
		NetProfit:    decimal.Zero,
	}

	var rowErrs error
	for _, row := range rows {
		sale, err := a.applyRow(ctx, userID, session.ID, row)
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", row.Row, err))
			report.Failed = append(report.Failed, failureFor(row, err))
			continue
		}
		report.Applied = append(report.Applied, AppliedRow{
			Row:       row.Row,
			SaleID:    sale.ID,
			ItemID:    sale.ItemID,
			SoldPrice: sale.SoldPrice,
			NetProfit: row.Proposed.NetProfit,
		})
		report.GrossRevenue = report.GrossRevenue.Add(sale.SoldPrice)
		report.NetProfit = report.NetProfit.Add(row.Proposed.NetProfit)
	}
	report.PartialFailure = len(report.Failed) > 0
	if rowErrs != nil {
		a.logg.Warn(a.logg.WithFields(ctx, map[string]any{
			"failed_rows": len(report.Failed),
			"error_count": len(multierr.Errors(rowErrs)),
			"error":       rowErrs.Error(),
		}), "reconcile rows failed")
	}

	at := a.now().UTC()
	err = a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return a.bind(tx).Sessions.UpdateStatus(ctx, session.ID, enums.SessionStatusFinalized, enums.SessionStatusReconciled, at)
	})
	if err != nil {
		a.metrics.ObserveApply("failed", a.now().Sub(started), len(report.Failed))
		a.logg.Error(ctx, "mark session reconciled", err)
		return report, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "apply possibly partially applied; session status not updated").
			WithDetails(map[string]any{
				"sessionId":         session.ID,
				"partiallyApplied":  len(report.Applied) > 0,
				"applied":           report.Applied,
				"failed":            report.Failed,
				"statusWriteFailed": true,
			})
	}

	report.Status = enums.SessionStatusReconciled
	report.ReconciledAt = &at
	outcome := "reconciled"
	if report.PartialFailure {
		outcome = "partial"
	}
	a.metrics.ObserveApply(outcome, a.now().Sub(started), len(report.Failed))
	a.logg.Info(a.logg.WithFields(ctx, map[string]any{
		"applied": len(report.Applied),
		"failed":  len(report.Failed),
	}), "session reconciled")
	return report, nil
}

func (a *Applier) lock(ctx context.Context, sessionID uuid.UUID) (func(context.Context) error, error) {
	if a.locker == nil {
		return func(context.Context) error { return nil }, nil
	}
	release, err := a.locker.Acquire(ctx, lockScope, sessionID.String(), a.lockTTL)
	switch {
	case errors.Is(err, redis.ErrLocked):
		return nil, pkgerrors.New(pkgerrors.CodeLocked, "reconciliation already running for this session")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire reconcile lock")
	}
	return release, nil
}

// applyRow creates the sale and flips the item to sold in one transaction.
func (a *Applier) applyRow(ctx context.Context, userID, sessionID uuid.UUID, row RowResult) (*models.Sale, error) {
	sale := row.Proposed.Sale(userID, sessionID)
	if sale.SoldAt.IsZero() {
		sale.SoldAt = a.now().UTC()
	}
	err := a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		st := a.bind(tx)
		exists, err := st.Sales.ExistsForItem(ctx, sale.ItemID)
		if err != nil {
			return err
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "item already has a sale")
		}
		if err := st.Sales.Create(ctx, &sale); err != nil {
			return err
		}
		return st.Items.UpdateLifecycle(ctx, sale.ItemID, enums.LifecycleStatusActive, enums.LifecycleStatusSold)
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func failureFor(row RowResult, err error) RowFailure {
	f := RowFailure{Row: row.Row, Code: pkgerrors.CodePersistence, Reason: err.Error()}
	if row.Proposed != nil {
		f.ItemID = row.Proposed.ItemID
	}
	if typed := pkgerrors.As(err); typed != nil {
		f.Code = typed.Code()
		f.Reason = typed.Message()
	}
	return f
}
