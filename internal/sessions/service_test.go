package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/internal/breaks"
	"github.com/angelmondragon/showrunner-backend/internal/expenses"
	"github.com/angelmondragon/showrunner-backend/internal/inventory"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

type fixture struct {
	svc      Service
	sessions *Repository
	items    *inventory.Repository
	breaks   *breaks.Repository
	expenses *expenses.Repository
	userID   uuid.UUID
	clock    time.Time
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.InventoryItem{}, &models.Session{}, &models.SessionItem{},
		&models.Break{}, &models.BreakBox{}, &models.SessionExpense{},
	))

	f := &fixture{
		sessions: NewRepository(conn),
		items:    inventory.NewRepository(conn),
		breaks:   breaks.NewRepository(conn),
		expenses: expenses.NewRepository(conn),
		userID:   uuid.New(),
		clock:    time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
	}
	f.svc, err = NewService(Deps{
		Sessions: f.sessions,
		Items:    f.items,
		Breaks:   f.breaks,
		Expenses: f.expenses,
		Clock:    func() time.Time { return f.clock },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) session(t *testing.T, showType enums.ShowType) *models.Session {
	t.Helper()
	s := &models.Session{
		UserID:           f.userID,
		Title:            "Sunday singles",
		SessionDate:      f.clock,
		Platform:         enums.PlatformWhatnot,
		ShowType:         showType,
		EstimatedFeeRate: d("0.12"),
	}
	require.NoError(t, f.sessions.Create(context.Background(), s))
	return s
}

func (f *fixture) item(t *testing.T, cost string) *models.InventoryItem {
	t.Helper()
	it := &models.InventoryItem{UserID: f.userID, Name: "card", CostBasis: d(cost)}
	require.NoError(t, f.items.Create(context.Background(), it))
	return it
}

func TestFinalizeUnfinalize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeSinglesOnly)

	got, err := f.svc.Finalize(ctx, f.userID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStatusFinalized, got.Status)
	require.NotNil(t, got.FinalizedAt)
	assert.True(t, f.clock.Equal(*got.FinalizedAt))

	_, err = f.svc.Finalize(ctx, f.userID, s.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	got, err = f.svc.Unfinalize(ctx, f.userID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStatusDraft, got.Status)
	assert.Nil(t, got.FinalizedAt)
}

func TestUnfinalizeReconciledConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeSinglesOnly)
	require.NoError(t, f.sessions.UpdateStatus(ctx, s.ID, enums.SessionStatusDraft, enums.SessionStatusFinalized, f.clock))
	require.NoError(t, f.sessions.UpdateStatus(ctx, s.ID, enums.SessionStatusFinalized, enums.SessionStatusReconciled, f.clock))

	_, err := f.svc.Unfinalize(ctx, f.userID, s.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAddItemNumbersSequentially(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeSinglesOnly)
	a, b := f.item(t, "5"), f.item(t, "7")

	first, err := f.svc.AddItem(ctx, f.userID, s.ID, a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.ItemNumber)
	assert.Equal(t, enums.ItemSourceManual, first.AddedVia)

	second, err := f.svc.AddItem(ctx, f.userID, s.ID, b.ID, enums.ItemSourceCSVImport)
	require.NoError(t, err)
	assert.Equal(t, 2, second.ItemNumber)

	_, err = f.svc.AddItem(ctx, f.userID, s.ID, a.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, f.svc.RemoveItem(ctx, f.userID, s.ID, first.ID))
	err = f.svc.RemoveItem(ctx, f.userID, s.ID, first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	third, err := f.svc.AddItem(ctx, f.userID, s.ID, a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 3, third.ItemNumber, "numbers are never reused")
}

func TestRunListLockedOutsideDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeSinglesOnly)
	it := f.item(t, "5")
	_, err := f.svc.Finalize(ctx, f.userID, s.ID)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.userID, s.ID, it.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAddItemRequiresActiveItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeSinglesOnly)
	it := f.item(t, "5")
	require.NoError(t, f.items.UpdateLifecycle(ctx, it.ID, enums.LifecycleStatusActive, enums.LifecycleStatusArchived))

	_, err := f.svc.AddItem(ctx, f.userID, s.ID, it.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestBreakevenFromStoredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeSinglesOnly)
	target := d("100")
	s.ProfitTargetAmount = &target
	require.NoError(t, f.sessions.base.DB(ctx).Save(s).Error)

	for _, cost := range []string{"100", "120", "80"} {
		it := f.item(t, cost)
		_, err := f.svc.AddItem(ctx, f.userID, s.ID, it.ID, "")
		require.NoError(t, err)
	}
	require.NoError(t, f.expenses.Create(ctx, &models.SessionExpense{SessionID: s.ID, Category: enums.ExpenseCategoryShipping, Amount: d("75")}))

	res, err := f.svc.Breakeven(ctx, f.userID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "375.00", res.TotalOutlay.StringFixed(2))
	assert.Equal(t, "539.77", res.BreakevenRevenue.StringFixed(2))
	assert.Equal(t, "179.92", res.Singles.RequiredAvgPerCard.StringFixed(2))
}

func TestBreakEconomicsForSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeBreaksOnly)
	require.NoError(t, f.breaks.Create(ctx, &models.Break{
		SessionID: s.ID, Title: "Hobby box", Style: enums.BreakStylePYT,
		Type: enums.BreakTypeSingleProduct, BoxCost: d("300"), SpotCount: 30,
	}, nil))
	require.NoError(t, f.expenses.Create(ctx, &models.SessionExpense{SessionID: s.ID, Category: enums.ExpenseCategorySupplies, Amount: d("30")}))

	se, err := f.svc.BreakEconomics(ctx, f.userID, s.ID)
	require.NoError(t, err)
	require.Len(t, se.Breaks, 1)
	assert.Equal(t, "30.00", se.Breaks[0].AllocatedExpenses.StringFixed(2))
	assert.Equal(t, "375.00", se.Breaks[0].RequiredRevenue.StringFixed(2))
	assert.Equal(t, "12.50", se.Breaks[0].RequiredPerSpot.StringFixed(2))

	be, err := f.svc.Breakeven(ctx, f.userID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "375.00", be.BreakevenRevenue.StringFixed(2))
	assert.Equal(t, "11.36", be.Breaks.PerBreak[0].OwnCostRequiredPerSpot.StringFixed(2))
}

func TestSessionsScopedToOwner(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, enums.ShowTypeSinglesOnly)
	_, err := f.svc.Finalize(context.Background(), uuid.New(), s.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
