package quotas

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
)

// Repository reads quota usage counts and membership tiers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CountBidsSince(ctx context.Context, truckerID uuid.UUID, since time.Time) (int64, error)
	CountAcceptedBids(ctx context.Context, truckerID uuid.UUID) (int64, error)
	FindTier(ctx context.Context, truckerID uuid.UUID) (enums.MembershipTier, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quota usage repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CountBidsSince counts all bids placed in the window regardless of status;
// rejected bids still consume monthly headroom.
func (r *repository) CountBidsSince(ctx context.Context, truckerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("trucker_id = ?", truckerID).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repository) CountAcceptedBids(ctx context.Context, truckerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("trucker_id = ?", truckerID).
		Where("status = ?", enums.BidStatusAccepted).
		Count(&count).Error
	return count, err
}

// FindTier falls back to basic when no profile row exists yet.
func (r *repository) FindTier(ctx context.Context, truckerID uuid.UUID) (enums.MembershipTier, error) {
	var profile models.TruckerProfile
	err := r.db.WithContext(ctx).
		Where("trucker_id = ?", truckerID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.TierBasic, nil
		}
		return "", err
	}
	if !profile.Tier.IsValid() {
		return enums.TierBasic, nil
	}
	return profile.Tier, nil
}
