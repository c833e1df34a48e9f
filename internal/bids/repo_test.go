package bids

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

	"github.com/freightlane/loadboard-backend/pkg/db"
	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

func setupBidsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS bids (
  id TEXT PRIMARY KEY,
  load_id TEXT NOT NULL,
  trucker_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX bids_load_trucker_key ON bids (load_id, trucker_id);
CREATE UNIQUE INDEX bids_one_accepted_per_load ON bids (load_id) WHERE status = 'accepted';`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func seedBid(t *testing.T, conn *gorm.DB, loadID, truckerID uuid.UUID, status enums.BidStatus, created time.Time) *models.Bid {
	t.Helper()

	bid := &models.Bid{
		ID:        uuid.New(),
		LoadID:    loadID,
		TruckerID: truckerID,
		Amount:    decimal.RequireFromString("1500.00"),
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, conn.Create(bid).Error)
	return bid
}

func TestCreateRejectsDuplicatePerLoadAndTrucker(t *testing.T) {
	conn := setupBidsTestDB(t)
	repo := NewRepository(conn)

	loadID := uuid.New()
	truckerID := uuid.New()
	seedBid(t, conn, loadID, truckerID, enums.BidStatusPending, time.Now().UTC())

	_, err := repo.Create(context.Background(), &models.Bid{
		ID:        uuid.New(),
		LoadID:    loadID,
		TruckerID: truckerID,
		Amount:    decimal.RequireFromString("1600.00"),
		Status:    enums.BidStatusPending,
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestOneAcceptedBidPerLoad(t *testing.T) {
	conn := setupBidsTestDB(t)

	loadID := uuid.New()
	seedBid(t, conn, loadID, uuid.New(), enums.BidStatusAccepted, time.Now().UTC())

	second := &models.Bid{
		ID:        uuid.New(),
		LoadID:    loadID,
		TruckerID: uuid.New(),
		Amount:    decimal.RequireFromString("1400.00"),
		Status:    enums.BidStatusAccepted,
	}
	err := conn.Create(second).Error
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestTransitionStatusCAS(t *testing.T) {
	conn := setupBidsTestDB(t)
	repo := NewRepository(conn)

	bid := seedBid(t, conn, uuid.New(), uuid.New(), enums.BidStatusPending, time.Now().UTC())

	swapped, err := repo.TransitionStatus(context.Background(), bid.ID, enums.BidStatusPending, enums.BidStatusAccepted)
	require.NoError(t, err)
	assert.True(t, swapped)

	// The losing writer sees RowsAffected == 0, never a silent overwrite.
	swapped, err = repo.TransitionStatus(context.Background(), bid.ID, enums.BidStatusPending, enums.BidStatusRejected)
	require.NoError(t, err)
	assert.False(t, swapped)

	reloaded, err := repo.FindByID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BidStatusAccepted, reloaded.Status)
}

func TestUpdateAmountOnlyWhilePending(t *testing.T) {
	conn := setupBidsTestDB(t)
	repo := NewRepository(conn)

	pending := seedBid(t, conn, uuid.New(), uuid.New(), enums.BidStatusPending, time.Now().UTC())
	accepted := seedBid(t, conn, uuid.New(), uuid.New(), enums.BidStatusAccepted, time.Now().UTC())

	updated, err := repo.UpdateAmount(context.Background(), pending.ID, decimal.RequireFromString("1750.00"))
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.UpdateAmount(context.Background(), accepted.ID, decimal.RequireFromString("1750.00"))
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeletePendingGuard(t *testing.T) {
	conn := setupBidsTestDB(t)
	repo := NewRepository(conn)

	pending := seedBid(t, conn, uuid.New(), uuid.New(), enums.BidStatusPending, time.Now().UTC())
	accepted := seedBid(t, conn, uuid.New(), uuid.New(), enums.BidStatusAccepted, time.Now().UTC())

	deleted, err := repo.DeletePending(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeletePending(context.Background(), accepted.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.FindByID(context.Background(), accepted.ID)
	require.NoError(t, err)
}

func TestFindByLoadAndTruckerNil(t *testing.T) {
	conn := setupBidsTestDB(t)
	repo := NewRepository(conn)

	found, err := repo.FindByLoadAndTrucker(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCountAcceptedForLoad(t *testing.T) {
	conn := setupBidsTestDB(t)
	repo := NewRepository(conn)

	loadID := uuid.New()
	seedBid(t, conn, loadID, uuid.New(), enums.BidStatusAccepted, time.Now().UTC())
	seedBid(t, conn, loadID, uuid.New(), enums.BidStatusPending, time.Now().UTC())
	seedBid(t, conn, uuid.New(), uuid.New(), enums.BidStatusAccepted, time.Now().UTC())

	count, err := repo.CountAcceptedForLoad(context.Background(), loadID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListByTruckerPagination(t *testing.T) {
	conn := setupBidsTestDB(t)
	repo := NewRepository(conn)

	trucker := uuid.New()
	now := time.Now().UTC()
	older := seedBid(t, conn, uuid.New(), trucker, enums.BidStatusPending, now.Add(-time.Hour))
	newer := seedBid(t, conn, uuid.New(), trucker, enums.BidStatusRejected, now)
	seedBid(t, conn, uuid.New(), uuid.New(), enums.BidStatusPending, now)

	list, err := repo.ListByTrucker(context.Background(), trucker, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Bids, 1)
	assert.Equal(t, newer.ID, list.Bids[0].ID)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.ListByTrucker(context.Background(), trucker, pagination.Params{Limit: 1, Cursor: list.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Bids, 1)
	assert.Equal(t, older.ID, second.Bids[0].ID)
	assert.Empty(t, second.NextCursor)
}
