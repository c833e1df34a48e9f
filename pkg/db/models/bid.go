package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightlane/loadboard-backend/pkg/enums"
)

// Bid is a trucker's offer on a load. At most one bid per (load, trucker)
// pair; at most one accepted bid per load, enforced by a partial unique
// index alongside the engine's conditional transitions.
type Bid struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LoadID    uuid.UUID       `gorm:"column:load_id;type:uuid;not null;uniqueIndex:bids_load_trucker_key,priority:1"`
	TruckerID uuid.UUID       `gorm:"column:trucker_id;type:uuid;not null;uniqueIndex:bids_load_trucker_key,priority:2"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Status    enums.BidStatus `gorm:"column:status;type:bid_status;not null;default:'pending'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
