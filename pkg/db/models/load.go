package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/enums"
)

// Load is a shipment posted by a broker, open for bidding or offered at a
// fixed rate. Loads are soft-deleted so bids never dangle.
type Load struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BrokerID        uuid.UUID        `gorm:"column:broker_id;type:uuid;not null"`
	Origin          string           `gorm:"column:origin;type:text;not null"`
	Destination     string           `gorm:"column:destination;type:text;not null"`
	Status          enums.LoadStatus `gorm:"column:status;type:load_status;not null;default:'posted'"`
	BidEnabled      bool             `gorm:"column:bid_enabled;not null;default:true"`
	FixedRate       *decimal.Decimal `gorm:"column:fixed_rate;type:numeric(12,2)"`
	BiddingDeadline *time.Time       `gorm:"column:bidding_deadline"`
	BudgetAmount    *decimal.Decimal `gorm:"column:budget_amount;type:numeric(12,2)"`
	BudgetCurrency  string           `gorm:"column:budget_currency;type:text;not null;default:'USD'"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}
