package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightlane/loadboard-backend/pkg/enums"
)

// TruckerProfile carries the membership tier used for quota evaluation.
// Profile CRUD lives in an external service; this row is read-only here.
type TruckerProfile struct {
	TruckerID uuid.UUID            `gorm:"column:trucker_id;type:uuid;primaryKey"`
	Tier      enums.MembershipTier `gorm:"column:tier;type:membership_tier;not null;default:'basic'"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
