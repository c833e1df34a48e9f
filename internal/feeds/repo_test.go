package feeds

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

func setupFeedsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS feed_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  load_id TEXT NOT NULL,
  bid_id TEXT,
  seen_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func seedFeedItem(t *testing.T, conn *gorm.DB, userID uuid.UUID, created time.Time) *models.FeedItem {
	t.Helper()

	item := &models.FeedItem{
		ID:        uuid.New(),
		UserID:    userID,
		EventType: enums.EventBidPlaced,
		LoadID:    uuid.New(),
		CreatedAt: created,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func TestListByUserPagination(t *testing.T) {
	conn := setupFeedsTestDB(t)
	repo := NewRepository(conn)

	user := uuid.New()
	now := time.Now().UTC()
	older := seedFeedItem(t, conn, user, now.Add(-time.Hour))
	newer := seedFeedItem(t, conn, user, now)
	seedFeedItem(t, conn, uuid.New(), now)

	list, err := repo.ListByUser(context.Background(), user, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, newer.ID, list.Items[0].ID)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.ListByUser(context.Background(), user, pagination.Params{Limit: 1, Cursor: list.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, older.ID, second.Items[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestMarkSeenScopedToUser(t *testing.T) {
	conn := setupFeedsTestDB(t)
	repo := NewRepository(conn)

	user := uuid.New()
	mine := seedFeedItem(t, conn, user, time.Now().UTC())
	theirs := seedFeedItem(t, conn, uuid.New(), time.Now().UTC())

	updated, err := repo.MarkSeen(context.Background(), user, []uuid.UUID{mine.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	var reloaded models.FeedItem
	require.NoError(t, conn.Where("id = ?", theirs.ID).First(&reloaded).Error)
	assert.Nil(t, reloaded.SeenAt)

	// Marking twice is a no-op for already seen rows.
	updated, err = repo.MarkSeen(context.Background(), user, []uuid.UUID{mine.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

func TestMarkSeenEmptyInput(t *testing.T) {
	conn := setupFeedsTestDB(t)
	repo := NewRepository(conn)

	updated, err := repo.MarkSeen(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}
