package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightlane/loadboard-backend/pkg/enums"
)

// BidPlacedEvent signals a new pending bid on a load.
type BidPlacedEvent struct {
	BidID     uuid.UUID       `json:"bid_id"`
	LoadID    uuid.UUID       `json:"load_id"`
	TruckerID uuid.UUID       `json:"trucker_id"`
	BrokerID  uuid.UUID       `json:"broker_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// BidUpdatedEvent is emitted when a trucker re-prices a pending bid.
type BidUpdatedEvent struct {
	BidID          uuid.UUID       `json:"bid_id"`
	LoadID         uuid.UUID       `json:"load_id"`
	TruckerID      uuid.UUID       `json:"trucker_id"`
	BrokerID       uuid.UUID       `json:"broker_id"`
	Amount         decimal.Decimal `json:"amount"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
}

// BidDecisionEvent carries a broker's accept or reject verdict on a bid.
type BidDecisionEvent struct {
	BidID     uuid.UUID       `json:"bid_id"`
	LoadID    uuid.UUID       `json:"load_id"`
	TruckerID uuid.UUID       `json:"trucker_id"`
	BrokerID  uuid.UUID       `json:"broker_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    enums.BidStatus `json:"status"`
}

// BidUndoneEvent reports an accepted bid reverted to pending.
type BidUndoneEvent struct {
	BidID     uuid.UUID `json:"bid_id"`
	LoadID    uuid.UUID `json:"load_id"`
	TruckerID uuid.UUID `json:"trucker_id"`
	BrokerID  uuid.UUID `json:"broker_id"`
	UndoneAt  time.Time `json:"undone_at"`
}

// BidDeletedEvent reports a trucker withdrawing a pending bid.
type BidDeletedEvent struct {
	BidID     uuid.UUID `json:"bid_id"`
	LoadID    uuid.UUID `json:"load_id"`
	TruckerID uuid.UUID `json:"trucker_id"`
	BrokerID  uuid.UUID `json:"broker_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// LoadAssignedEvent is emitted when a load moves to in_progress with a winner.
type LoadAssignedEvent struct {
	LoadID       uuid.UUID       `json:"load_id"`
	BrokerID     uuid.UUID       `json:"broker_id"`
	TruckerID    uuid.UUID       `json:"trucker_id"`
	WinningBidID *uuid.UUID      `json:"winning_bid_id,omitempty"`
	Rate         decimal.Decimal `json:"rate"`
	FixedRate    bool            `json:"fixed_rate"`
}

// LoadReopenedEvent is emitted when an assignment is undone and the load
// returns to the posted state.
type LoadReopenedEvent struct {
	LoadID     uuid.UUID `json:"load_id"`
	BrokerID   uuid.UUID `json:"broker_id"`
	ReopenedAt time.Time `json:"reopened_at"`
}
