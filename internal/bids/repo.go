package bids

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

// Repository defines persistence operations for bids.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bid *models.Bid) (*models.Bid, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	FindByLoadAndTrucker(ctx context.Context, loadID, truckerID uuid.UUID) (*models.Bid, error)
	TransitionStatus(ctx context.Context, bidID uuid.UUID, expected, next enums.BidStatus) (bool, error)
	UpdateAmount(ctx context.Context, bidID uuid.UUID, amount decimal.Decimal) (bool, error)
	DeletePending(ctx context.Context, bidID uuid.UUID) (bool, error)
	CountAcceptedForLoad(ctx context.Context, loadID uuid.UUID) (int64, error)
	ListByLoad(ctx context.Context, loadID uuid.UUID, params pagination.Params) (*BidList, error)
	ListByTrucker(ctx context.Context, truckerID uuid.UUID, params pagination.Params) (*BidList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bid repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// FindByLoadAndTrucker returns (nil, nil) when the trucker has no bid on the
// load.
func (r *repository) FindByLoadAndTrucker(ctx context.Context, loadID, truckerID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("load_id = ?", loadID).
		Where("trucker_id = ?", truckerID).
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// TransitionStatus performs the conditional status swap. A false return means
// the bid was not in the expected state when the update ran.
func (r *repository) TransitionStatus(ctx context.Context, bidID uuid.UUID, expected, next enums.BidStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("id = ?", bidID).
		Where("status = ?", expected).
		Updates(map[string]any{"status": next})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateAmount re-prices the bid only while it is still pending.
func (r *repository) UpdateAmount(ctx context.Context, bidID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("id = ?", bidID).
		Where("status = ?", enums.BidStatusPending).
		Updates(map[string]any{"amount": amount})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeletePending removes the bid only while it is still pending. The status
// predicate lives in the DELETE itself so a concurrent accept cannot race it.
func (r *repository) DeletePending(ctx context.Context, bidID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", bidID).
		Where("status = ?", enums.BidStatusPending).
		Delete(&models.Bid{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountAcceptedForLoad(ctx context.Context, loadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("load_id = ?", loadID).
		Where("status = ?", enums.BidStatusAccepted).
		Count(&count).Error
	return count, err
}

func (r *repository) ListByLoad(ctx context.Context, loadID uuid.UUID, params pagination.Params) (*BidList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("load_id = ?", loadID)
	return r.list(query, params)
}

func (r *repository) ListByTrucker(ctx context.Context, truckerID uuid.UUID, params pagination.Params) (*BidList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("trucker_id = ?", truckerID)
	return r.list(query, params)
}

func (r *repository) list(query *gorm.DB, params pagination.Params) (*BidList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Bid
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &BidList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Bids = rows
	return list, nil
}
