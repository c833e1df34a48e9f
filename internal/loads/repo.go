package loads

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

// Repository defines persistence operations for loads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, load *models.Load) (*models.Load, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
	SetStatus(ctx context.Context, loadID uuid.UUID, expected, next enums.LoadStatus) (bool, error)
	UpdateBidding(ctx context.Context, loadID uuid.UUID, updates map[string]any) (bool, error)
	ListByBroker(ctx context.Context, brokerID uuid.UUID, params pagination.Params) (*LoadList, error)
	ListOpen(ctx context.Context, params pagination.Params) (*LoadList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a load repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, load *models.Load) (*models.Load, error) {
	if err := r.db.WithContext(ctx).Create(load).Error; err != nil {
		return nil, err
	}
	return load, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	var load models.Load
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&load).Error
	if err != nil {
		return nil, err
	}
	return &load, nil
}

// SetStatus performs the conditional transition. A false return means the
// load was not in the expected state when the update ran; the caller decides
// whether that is a conflict or a no-op.
func (r *repository) SetStatus(ctx context.Context, loadID uuid.UUID, expected, next enums.LoadStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("id = ?", loadID).
		Where("status = ?", expected).
		Updates(map[string]any{"status": next})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateBidding applies broker edits to bid_enabled/fixed_rate/deadline only
// while the load is still posted.
func (r *repository) UpdateBidding(ctx context.Context, loadID uuid.UUID, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("id = ?", loadID).
		Where("status = ?", enums.LoadStatusPosted).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByBroker(ctx context.Context, brokerID uuid.UUID, params pagination.Params) (*LoadList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("broker_id = ?", brokerID)
	return r.list(ctx, query, params)
}

func (r *repository) ListOpen(ctx context.Context, params pagination.Params) (*LoadList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("status = ?", enums.LoadStatusPosted)
	return r.list(ctx, query, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) (*LoadList, error) {
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
	var rows []models.Load
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &LoadList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	summaries := make([]LoadSummary, 0, len(rows))
	for _, load := range rows {
		count, err := r.pendingBidCount(ctx, load.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, LoadSummary{Load: load, PendingBids: count})
	}
	list.Loads = summaries
	return list, nil
}

func (r *repository) pendingBidCount(ctx context.Context, loadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("load_id = ?", loadID).
		Where("status = ?", enums.BidStatusPending).
		Count(&count).Error
	return count, err
}
