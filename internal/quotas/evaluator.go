package quotas

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/config"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	pkgerrors "github.com/freightlane/loadboard-backend/pkg/errors"
	"github.com/freightlane/loadboard-backend/pkg/logger"
)

// Unlimited is the sentinel limit meaning the tier has no ceiling.
const Unlimited = -1

// SnapshotCache is the narrow redis surface used for quota count snapshots.
type SnapshotCache interface {
	QuotaSnapshotKey(truckerID, kind, period string) string
	GetQuotaSnapshot(ctx context.Context, key string) (string, error)
	StoreQuotaSnapshot(ctx context.Context, key string, count int64, ttl time.Duration) error
	InvalidateQuotaSnapshot(ctx context.Context, keys ...string) error
}

// Evaluator answers "may this trucker take one more of kind X" against tier
// limits. A false answer is a business answer, not an error.
type Evaluator struct {
	repo  Repository
	cache SnapshotCache
	cfg   config.QuotaConfig
	logg  *logger.Logger
}

// NewEvaluator builds a quota evaluator with the required dependencies.
func NewEvaluator(repo Repository, cache SnapshotCache, cfg config.QuotaConfig, logg *logger.Logger) (*Evaluator, error) {
	if repo == nil {
		return nil, fmt.Errorf("quota repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("snapshot cache required")
	}
	return &Evaluator{repo: repo, cache: cache, cfg: cfg, logg: logg}, nil
}

// PeriodStart returns the UTC start of the calendar-month billing window.
func PeriodStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PeriodKey names the billing window for cache keys, e.g. "2026-08".
func PeriodKey(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// LimitFor resolves the configured ceiling for a tier and quota kind.
func (e *Evaluator) LimitFor(tier enums.MembershipTier, kind enums.QuotaKind) int {
	switch kind {
	case enums.QuotaBidsPerMonth:
		switch tier {
		case enums.TierPro:
			return e.cfg.ProBidsPerMonth
		case enums.TierEnterprise:
			return e.cfg.EnterpriseBidsPM
		default:
			return e.cfg.BasicBidsPerMonth
		}
	case enums.QuotaActiveLoads:
		switch tier {
		case enums.TierPro:
			return e.cfg.ProActiveLoads
		case enums.TierEnterprise:
			return e.cfg.EnterpriseActive
		default:
			return e.cfg.BasicActiveLoads
		}
	default:
		return 0
	}
}

// CheckAccess is the advisory pre-check: counts come from the snapshot cache
// when fresh, the database otherwise. The engine re-checks inside the open
// transaction before committing anything quota-bound.
func (e *Evaluator) CheckAccess(ctx context.Context, kind enums.QuotaKind, truckerID uuid.UUID) (bool, error) {
	if !kind.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid quota kind")
	}
	if truckerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "trucker id required")
	}

	tier, err := e.repo.FindTier(ctx, truckerID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership tier")
	}
	limit := e.LimitFor(tier, kind)
	if limit == Unlimited {
		return true, nil
	}
	if limit <= 0 {
		return false, nil
	}

	count, err := e.cachedCount(ctx, kind, truckerID)
	if err != nil {
		return false, err
	}
	return count < int64(limit), nil
}

// CheckAccessTx bypasses the cache and counts inside the caller's transaction.
// This is the authoritative commit-time check.
func (e *Evaluator) CheckAccessTx(ctx context.Context, tx *gorm.DB, kind enums.QuotaKind, truckerID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := e.repo.WithTx(tx)

	tier, err := repo.FindTier(ctx, truckerID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership tier")
	}
	limit := e.LimitFor(tier, kind)
	if limit == Unlimited {
		return true, nil
	}
	if limit <= 0 {
		return false, nil
	}

	count, err := e.count(ctx, repo, kind, truckerID, time.Now())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quota usage")
	}
	return count < int64(limit), nil
}

// Invalidate drops cached snapshots for both quota kinds after a committed
// bid transition.
func (e *Evaluator) Invalidate(ctx context.Context, truckerID uuid.UUID) {
	period := PeriodKey(time.Now())
	keys := []string{
		e.cache.QuotaSnapshotKey(truckerID.String(), enums.QuotaBidsPerMonth.String(), period),
		e.cache.QuotaSnapshotKey(truckerID.String(), enums.QuotaActiveLoads.String(), ""),
	}
	if err := e.cache.InvalidateQuotaSnapshot(ctx, keys...); err != nil && e.logg != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "quota snapshot invalidation failed")
	}
}

func (e *Evaluator) cachedCount(ctx context.Context, kind enums.QuotaKind, truckerID uuid.UUID) (int64, error) {
	now := time.Now()
	key := e.snapshotKey(kind, truckerID, now)

	if raw, err := e.cache.GetQuotaSnapshot(ctx, key); err == nil {
		if cached, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			return cached, nil
		}
	}

	count, err := e.count(ctx, e.repo, kind, truckerID, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quota usage")
	}
	if storeErr := e.cache.StoreQuotaSnapshot(ctx, key, count, e.cfg.SnapshotTTL); storeErr != nil && e.logg != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", storeErr.Error()), "quota snapshot store failed")
	}
	return count, nil
}

func (e *Evaluator) snapshotKey(kind enums.QuotaKind, truckerID uuid.UUID, now time.Time) string {
	if kind == enums.QuotaBidsPerMonth {
		return e.cache.QuotaSnapshotKey(truckerID.String(), kind.String(), PeriodKey(now))
	}
	return e.cache.QuotaSnapshotKey(truckerID.String(), kind.String(), "")
}

func (e *Evaluator) count(ctx context.Context, repo Repository, kind enums.QuotaKind, truckerID uuid.UUID, now time.Time) (int64, error) {
	switch kind {
	case enums.QuotaBidsPerMonth:
		return repo.CountBidsSince(ctx, truckerID, PeriodStart(now))
	case enums.QuotaActiveLoads:
		return repo.CountAcceptedBids(ctx, truckerID)
	default:
		return 0, fmt.Errorf("unsupported quota kind %s", kind)
	}
}
