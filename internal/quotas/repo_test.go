package quotas

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
)

func setupQuotaTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

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
	profiles := `
CREATE TABLE IF NOT EXISTS trucker_profiles (
  trucker_id TEXT PRIMARY KEY,
  tier TEXT NOT NULL DEFAULT 'basic',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(bids).Error)
	require.NoError(t, db.Exec(profiles).Error)
	return db
}

func insertBid(t *testing.T, db *gorm.DB, truckerID uuid.UUID, status enums.BidStatus, created time.Time) {
	t.Helper()

	bid := &models.Bid{
		ID:        uuid.New(),
		LoadID:    uuid.New(),
		TruckerID: truckerID,
		Amount:    decimal.RequireFromString("1200.00"),
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(bid).Error)
}

func TestCountBidsSinceCountsAllStatuses(t *testing.T) {
	db := setupQuotaTestDB(t)
	repo := NewRepository(db)

	trucker := uuid.New()
	other := uuid.New()
	monthStart := PeriodStart(time.Now())

	insertBid(t, db, trucker, enums.BidStatusPending, monthStart.Add(time.Hour))
	insertBid(t, db, trucker, enums.BidStatusRejected, monthStart.Add(2*time.Hour))
	insertBid(t, db, trucker, enums.BidStatusAccepted, monthStart.Add(3*time.Hour))
	insertBid(t, db, trucker, enums.BidStatusPending, monthStart.Add(-48*time.Hour))
	insertBid(t, db, other, enums.BidStatusPending, monthStart.Add(time.Hour))

	count, err := repo.CountBidsSince(context.Background(), trucker, monthStart)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "prior-month and other-trucker bids excluded")
}

func TestCountAcceptedBids(t *testing.T) {
	db := setupQuotaTestDB(t)
	repo := NewRepository(db)

	trucker := uuid.New()
	now := time.Now().UTC()

	insertBid(t, db, trucker, enums.BidStatusAccepted, now)
	insertBid(t, db, trucker, enums.BidStatusAccepted, now.Add(-30*24*time.Hour))
	insertBid(t, db, trucker, enums.BidStatusPending, now)
	insertBid(t, db, trucker, enums.BidStatusRejected, now)

	count, err := repo.CountAcceptedBids(context.Background(), trucker)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "accepted bids count regardless of age")
}

func TestFindTierDefaultsToBasic(t *testing.T) {
	db := setupQuotaTestDB(t)
	repo := NewRepository(db)

	tier, err := repo.FindTier(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.TierBasic, tier)
}

func TestFindTierReadsProfile(t *testing.T) {
	db := setupQuotaTestDB(t)
	repo := NewRepository(db)

	trucker := uuid.New()
	profile := &models.TruckerProfile{TruckerID: trucker, Tier: enums.TierPro}
	require.NoError(t, db.Create(profile).Error)

	tier, err := repo.FindTier(context.Background(), trucker)
	require.NoError(t, err)
	assert.Equal(t, enums.TierPro, tier)
}
