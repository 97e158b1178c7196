package sales

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

	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Sale{}))
	return NewRepository(conn)
}

func newSale(userID, itemID, sessionID uuid.UUID, at time.Time) *models.Sale {
	return &models.Sale{
		UserID:    userID,
		ItemID:    itemID,
		SessionID: &sessionID,
		Channel:   enums.PlatformWhatnot,
		SoldPrice: decimal.RequireFromString("25"),
		Fees:      decimal.RequireFromString("2.50"),
		SoldAt:    at,
	}
}

func TestCreateRejectsSecondSaleForItem(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	userID, itemID, sessionID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newSale(userID, itemID, sessionID, now)))
	exists, err := repo.ExistsForItem(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Create(ctx, newSale(userID, itemID, sessionID, now))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	list, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListByUserInRange(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	userID, sessionID := uuid.New(), uuid.New()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newSale(userID, uuid.New(), sessionID, day.Add(2*time.Hour))))
	require.NoError(t, repo.Create(ctx, newSale(userID, uuid.New(), sessionID, day.AddDate(0, 0, 3))))
	require.NoError(t, repo.Create(ctx, newSale(uuid.New(), uuid.New(), sessionID, day.Add(time.Hour))))

	got, err := repo.ListByUserInRange(ctx, userID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	all, err := repo.ListBySessions(ctx, []uuid.UUID{sessionID})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
