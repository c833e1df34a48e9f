package loads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
)

// CreateInput captures the fields required to post a new load.
type CreateInput struct {
	BrokerID        uuid.UUID
	Origin          string
	Destination     string
	BidEnabled      *bool
	FixedRate       *decimal.Decimal
	BiddingDeadline *time.Time
	BudgetAmount    *decimal.Decimal
	BudgetCurrency  string
}

// UpdateBiddingInput carries broker edits to a posted load's bidding controls.
type UpdateBiddingInput struct {
	LoadID          uuid.UUID
	ActorUserID     uuid.UUID
	ActorRole       string
	BidEnabled      *bool
	FixedRate       *decimal.Decimal
	ClearFixedRate  bool
	BiddingDeadline *time.Time
	ClearDeadline   bool
}

// LoadSummary pairs a load with its live pending bid count for listings.
type LoadSummary struct {
	Load        models.Load
	PendingBids int64
}

// LoadList is a cursor-paginated page of load summaries.
type LoadList struct {
	Loads      []LoadSummary
	NextCursor string
}
