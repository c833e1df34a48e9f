package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightlane/loadboard-backend/pkg/enums"
)

// FeedItem is a per-user change hint written by the feed consumer. Dashboards
// poll these and refetch authoritative state; the row never carries state.
type FeedItem struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	EventType enums.OutboxEventType `gorm:"column:event_type;type:text;not null"`
	LoadID    uuid.UUID             `gorm:"column:load_id;type:uuid;not null"`
	BidID     *uuid.UUID            `gorm:"column:bid_id;type:uuid"`
	SeenAt    *time.Time            `gorm:"column:seen_at"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
