package loads

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

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

func setupLoadsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	loads := `
CREATE TABLE IF NOT EXISTS loads (
  id TEXT PRIMARY KEY,
  broker_id TEXT NOT NULL,
  origin TEXT NOT NULL,
  destination TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'posted',
  bid_enabled INTEGER NOT NULL DEFAULT 1,
  fixed_rate TEXT,
  bidding_deadline DATETIME,
  budget_amount TEXT,
  budget_currency TEXT NOT NULL DEFAULT 'USD',
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	bids := `
CREATE TABLE IF NOT EXISTS bids (
  id TEXT PRIMARY KEY,
  load_id TEXT NOT NULL,
  trucker_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(loads).Error)
	require.NoError(t, db.Exec(bids).Error)
	return db
}

func newLoad(t *testing.T, db *gorm.DB, brokerID uuid.UUID, status enums.LoadStatus, created time.Time) *models.Load {
	t.Helper()

	load := &models.Load{
		ID:             uuid.New(),
		BrokerID:       brokerID,
		Origin:         "Tulsa, OK",
		Destination:    "Amarillo, TX",
		Status:         status,
		BidEnabled:     true,
		BudgetCurrency: "USD",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, db.Create(load).Error)
	return load
}

func newLoadBid(t *testing.T, db *gorm.DB, loadID uuid.UUID, status enums.BidStatus) {
	t.Helper()

	bid := &models.Bid{
		ID:        uuid.New(),
		LoadID:    loadID,
		TruckerID: uuid.New(),
		Amount:    decimal.RequireFromString("900.00"),
		Status:    status,
	}
	require.NoError(t, db.Create(bid).Error)
}

func TestRepositorySetStatusCAS(t *testing.T) {
	db := setupLoadsTestDB(t)
	repo := NewRepository(db)

	load := newLoad(t, db, uuid.New(), enums.LoadStatusPosted, time.Now().UTC())

	swapped, err := repo.SetStatus(context.Background(), load.ID, enums.LoadStatusPosted, enums.LoadStatusInProgress)
	require.NoError(t, err)
	assert.True(t, swapped)

	// Second swap from the same expected state must lose.
	swapped, err = repo.SetStatus(context.Background(), load.ID, enums.LoadStatusPosted, enums.LoadStatusInProgress)
	require.NoError(t, err)
	assert.False(t, swapped)

	reloaded, err := repo.FindByID(context.Background(), load.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LoadStatusInProgress, reloaded.Status)
}

func TestRepositoryUpdateBiddingOnlyWhilePosted(t *testing.T) {
	db := setupLoadsTestDB(t)
	repo := NewRepository(db)

	posted := newLoad(t, db, uuid.New(), enums.LoadStatusPosted, time.Now().UTC())
	assigned := newLoad(t, db, uuid.New(), enums.LoadStatusInProgress, time.Now().UTC())

	updated, err := repo.UpdateBidding(context.Background(), posted.ID, map[string]any{"bid_enabled": false})
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.UpdateBidding(context.Background(), assigned.ID, map[string]any{"bid_enabled": false})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestRepositoryListByBrokerPagination(t *testing.T) {
	db := setupLoadsTestDB(t)
	repo := NewRepository(db)

	broker := uuid.New()
	now := time.Now().UTC()
	older := newLoad(t, db, broker, enums.LoadStatusPosted, now.Add(-time.Hour))
	newer := newLoad(t, db, broker, enums.LoadStatusPosted, now)
	newLoad(t, db, uuid.New(), enums.LoadStatusPosted, now)

	newLoadBid(t, db, newer.ID, enums.BidStatusPending)
	newLoadBid(t, db, newer.ID, enums.BidStatusPending)
	newLoadBid(t, db, newer.ID, enums.BidStatusRejected)

	list, err := repo.ListByBroker(context.Background(), broker, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Loads, 1)
	assert.Equal(t, newer.ID, list.Loads[0].Load.ID)
	assert.Equal(t, int64(2), list.Loads[0].PendingBids)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.ListByBroker(context.Background(), broker, pagination.Params{Limit: 1, Cursor: list.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Loads, 1)
	assert.Equal(t, older.ID, second.Loads[0].Load.ID)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListOpenFiltersStatus(t *testing.T) {
	db := setupLoadsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	posted := newLoad(t, db, uuid.New(), enums.LoadStatusPosted, now)
	newLoad(t, db, uuid.New(), enums.LoadStatusInProgress, now)
	newLoad(t, db, uuid.New(), enums.LoadStatusCancelled, now)

	list, err := repo.ListOpen(context.Background(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Loads, 1)
	assert.Equal(t, posted.ID, list.Loads[0].Load.ID)
}
