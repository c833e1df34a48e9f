package enums

// OutboxEventType enumerates the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventBidPlaced    OutboxEventType = "bid.placed"
	EventBidUpdated   OutboxEventType = "bid.updated"
	EventBidAccepted  OutboxEventType = "bid.accepted"
	EventBidRejected  OutboxEventType = "bid.rejected"
	EventBidUndone    OutboxEventType = "bid.undone"
	EventBidDeleted   OutboxEventType = "bid.deleted"
	EventLoadAssigned OutboxEventType = "load.assigned"
	EventLoadReopened OutboxEventType = "load.reopened"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBidPlaced,
	EventBidUpdated,
	EventBidAccepted,
	EventBidRejected,
	EventBidUndone,
	EventBidDeleted,
	EventLoadAssigned,
	EventLoadReopened,
}

// IsValid reports whether the value matches a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateBid  OutboxAggregateType = "bid"
	AggregateLoad OutboxAggregateType = "load"
)

// OutboxDLQErrorReason classifies terminal outbox failures.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
