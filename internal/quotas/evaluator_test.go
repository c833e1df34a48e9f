package quotas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/config"
	"github.com/freightlane/loadboard-backend/pkg/enums"
)

type stubQuotaRepo struct {
	tier          enums.MembershipTier
	tierErr       error
	bidsSince     int64
	acceptedBids  int64
	countErr      error
	bidsCalls     int
	acceptedCalls int
}

func (s *stubQuotaRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubQuotaRepo) CountBidsSince(ctx context.Context, truckerID uuid.UUID, since time.Time) (int64, error) {
	s.bidsCalls++
	return s.bidsSince, s.countErr
}

func (s *stubQuotaRepo) CountAcceptedBids(ctx context.Context, truckerID uuid.UUID) (int64, error) {
	s.acceptedCalls++
	return s.acceptedBids, s.countErr
}

func (s *stubQuotaRepo) FindTier(ctx context.Context, truckerID uuid.UUID) (enums.MembershipTier, error) {
	if s.tierErr != nil {
		return "", s.tierErr
	}
	return s.tier, nil
}

type stubSnapshotCache struct {
	snapshot    string
	snapshotErr error
	stored      map[string]int64
	invalidated []string
}

func newStubSnapshotCache() *stubSnapshotCache {
	return &stubSnapshotCache{
		snapshotErr: errors.New("cache miss"),
		stored:      make(map[string]int64),
	}
}

func (s *stubSnapshotCache) QuotaSnapshotKey(truckerID, kind, period string) string {
	key := "fb:quota:" + truckerID + ":" + kind
	if period != "" {
		key += ":" + period
	}
	return key
}

func (s *stubSnapshotCache) GetQuotaSnapshot(ctx context.Context, key string) (string, error) {
	return s.snapshot, s.snapshotErr
}

func (s *stubSnapshotCache) StoreQuotaSnapshot(ctx context.Context, key string, count int64, ttl time.Duration) error {
	s.stored[key] = count
	return nil
}

func (s *stubSnapshotCache) InvalidateQuotaSnapshot(ctx context.Context, keys ...string) error {
	s.invalidated = append(s.invalidated, keys...)
	return nil
}

func testQuotaConfig() config.QuotaConfig {
	return config.QuotaConfig{
		BasicBidsPerMonth: 10,
		BasicActiveLoads:  2,
		ProBidsPerMonth:   50,
		ProActiveLoads:    10,
		EnterpriseBidsPM:  Unlimited,
		EnterpriseActive:  Unlimited,
		SnapshotTTL:       30 * time.Second,
	}
}

func TestCheckAccessUnderLimit(t *testing.T) {
	repo := &stubQuotaRepo{tier: enums.TierBasic, bidsSince: 9}
	cache := newStubSnapshotCache()
	eval, err := NewEvaluator(repo, cache, testQuotaConfig(), nil)
	require.NoError(t, err)

	allowed, err := eval.CheckAccess(context.Background(), enums.QuotaBidsPerMonth, uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, repo.bidsCalls)
	assert.Len(t, cache.stored, 1)
}

func TestCheckAccessAtLimit(t *testing.T) {
	repo := &stubQuotaRepo{tier: enums.TierBasic, bidsSince: 10}
	cache := newStubSnapshotCache()
	eval, err := NewEvaluator(repo, cache, testQuotaConfig(), nil)
	require.NoError(t, err)

	allowed, err := eval.CheckAccess(context.Background(), enums.QuotaBidsPerMonth, uuid.New())
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckAccessUnlimitedTierSkipsCounting(t *testing.T) {
	repo := &stubQuotaRepo{tier: enums.TierEnterprise, bidsSince: 100000}
	cache := newStubSnapshotCache()
	eval, err := NewEvaluator(repo, cache, testQuotaConfig(), nil)
	require.NoError(t, err)

	allowed, err := eval.CheckAccess(context.Background(), enums.QuotaBidsPerMonth, uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, repo.bidsCalls)
}

func TestCheckAccessUsesCachedSnapshot(t *testing.T) {
	repo := &stubQuotaRepo{tier: enums.TierPro, bidsSince: 999}
	cache := newStubSnapshotCache()
	cache.snapshot = "7"
	cache.snapshotErr = nil
	eval, err := NewEvaluator(repo, cache, testQuotaConfig(), nil)
	require.NoError(t, err)

	allowed, err := eval.CheckAccess(context.Background(), enums.QuotaBidsPerMonth, uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, repo.bidsCalls, "cached count should skip the database")
}

func TestCheckAccessActiveLoads(t *testing.T) {
	repo := &stubQuotaRepo{tier: enums.TierBasic, acceptedBids: 2}
	cache := newStubSnapshotCache()
	eval, err := NewEvaluator(repo, cache, testQuotaConfig(), nil)
	require.NoError(t, err)

	allowed, err := eval.CheckAccess(context.Background(), enums.QuotaActiveLoads, uuid.New())
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 1, repo.acceptedCalls)
}

func TestCheckAccessInvalidKind(t *testing.T) {
	eval, err := NewEvaluator(&stubQuotaRepo{tier: enums.TierBasic}, newStubSnapshotCache(), testQuotaConfig(), nil)
	require.NoError(t, err)

	_, err = eval.CheckAccess(context.Background(), enums.QuotaKind("loads_per_hour"), uuid.New())
	require.Error(t, err)
}

func TestCheckAccessTxRequiresTransaction(t *testing.T) {
	eval, err := NewEvaluator(&stubQuotaRepo{tier: enums.TierBasic}, newStubSnapshotCache(), testQuotaConfig(), nil)
	require.NoError(t, err)

	_, err = eval.CheckAccessTx(context.Background(), nil, enums.QuotaBidsPerMonth, uuid.New())
	require.Error(t, err)
}

func TestCheckAccessTxBypassesCache(t *testing.T) {
	repo := &stubQuotaRepo{tier: enums.TierBasic, bidsSince: 10}
	cache := newStubSnapshotCache()
	cache.snapshot = "0"
	cache.snapshotErr = nil
	eval, err := NewEvaluator(repo, cache, testQuotaConfig(), nil)
	require.NoError(t, err)

	allowed, err := eval.CheckAccessTx(context.Background(), &gorm.DB{}, enums.QuotaBidsPerMonth, uuid.New())
	require.NoError(t, err)
	assert.False(t, allowed, "in-tx check must count from the database, not the cache")
	assert.Equal(t, 1, repo.bidsCalls)
}

func TestInvalidateDropsBothKinds(t *testing.T) {
	cache := newStubSnapshotCache()
	eval, err := NewEvaluator(&stubQuotaRepo{tier: enums.TierBasic}, cache, testQuotaConfig(), nil)
	require.NoError(t, err)

	truckerID := uuid.New()
	eval.Invalidate(context.Background(), truckerID)
	require.Len(t, cache.invalidated, 2)
	assert.Contains(t, cache.invalidated[0], enums.QuotaBidsPerMonth.String())
	assert.Contains(t, cache.invalidated[1], enums.QuotaActiveLoads.String())
}

func TestPeriodStart(t *testing.T) {
	at := time.Date(2026, time.August, 30, 17, 45, 12, 0, time.FixedZone("CDT", -5*3600))
	start := PeriodStart(at)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, "2026-08", PeriodKey(at))
}
