package bids

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
)

// PlaceInput captures a trucker's offer on a posted load.
type PlaceInput struct {
	LoadID    uuid.UUID
	TruckerID uuid.UUID
	Amount    decimal.Decimal
}

// EditInput re-prices a pending bid owned by the trucker.
type EditInput struct {
	BidID     uuid.UUID
	TruckerID uuid.UUID
	Amount    decimal.Decimal
}

// DecisionInput carries a broker (or admin) verdict on a bid.
type DecisionInput struct {
	BidID       uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.CallerRole
}

// DeleteInput withdraws a pending bid owned by the trucker.
type DeleteInput struct {
	BidID     uuid.UUID
	TruckerID uuid.UUID
}

// FixedRateInput books a fixed-rate load directly, skipping the auction.
type FixedRateInput struct {
	LoadID    uuid.UUID
	TruckerID uuid.UUID
}

// BidList is a cursor-paginated page of bids.
type BidList struct {
	Bids       []models.Bid
	NextCursor string
}
