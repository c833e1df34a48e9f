package feeds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

// FeedList is a cursor-paginated page of feed items.
type FeedList struct {
	Items      []models.FeedItem
	NextCursor string
}

// Repository defines persistence operations for feed items.
type Repository interface {
	Create(ctx context.Context, item *models.FeedItem) error
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*FeedList, error)
	MarkSeen(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a feed repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, item *models.FeedItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*FeedList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).
		Model(&models.FeedItem{}).
		Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.FeedItem
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &FeedList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Items = rows
	return list, nil
}

// MarkSeen stamps the given items for the user. Items owned by other users are
// left untouched.
func (r *repository) MarkSeen(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.FeedItem{}).
		Where("user_id = ?", userID).
		Where("id IN ?", itemIDs).
		Where("seen_at IS NULL").
		Updates(map[string]any{"seen_at": now})
	return res.RowsAffected, res.Error
}
