package feeds

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/logger"
	"github.com/freightlane/loadboard-backend/pkg/outbox"
)

const feedConsumerName = "feed-worker"

type feedWriter interface {
	Create(ctx context.Context, item *models.FeedItem) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer fans domain events out into per-user feed rows. Rows are change
// hints only; dashboards refetch authoritative state when they see one.
type Consumer struct {
	repo         feedWriter
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds the feed fan-out consumer. The subscription may be nil in
// tests that drive Process directly.
func NewConsumer(repo feedWriter, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("feed repository required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		manager:      manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("domain subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		eventType := enums.OutboxEventType(msg.Attributes["event_type"])
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"message_id": msg.ID,
			"event_type": eventType,
		})

		var envelope outbox.PayloadEnvelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			// Malformed messages never become deliverable; drop them.
			c.logg.Error(logCtx, "failed to decode envelope", err)
			msg.Ack()
			return
		}
		if err := c.Process(ctx, eventType, envelope); err != nil {
			c.logg.Error(logCtx, "feed processing failed", err)
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// eventParticipants is the shared shape of every domain event payload: the
// load/bid identifiers plus the two parties to notify.
type eventParticipants struct {
	BidID     *uuid.UUID `json:"bid_id"`
	LoadID    uuid.UUID  `json:"load_id"`
	TruckerID uuid.UUID  `json:"trucker_id"`
	BrokerID  uuid.UUID  `json:"broker_id"`
}

// Process writes feed rows for the event's participants, once per event id.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "event not handled by feed consumer")
		return nil
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, feedConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var participants eventParticipants
	if err := json.Unmarshal(envelope.Data, &participants); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.manager.Delete(ctx, feedConsumerName, eventID)
		return err
	}
	if participants.LoadID == uuid.Nil {
		c.logg.Info(logCtx, "payload carries no load id, dropping")
		return nil
	}

	logCtx = c.logg.WithLoadID(logCtx, participants.LoadID.String())
	if err := c.fanOut(ctx, eventType, participants); err != nil {
		c.logg.Error(logCtx, "feed fan-out failed", err)
		_ = c.manager.Delete(ctx, feedConsumerName, eventID)
		return err
	}
	c.logg.Info(logCtx, "feed rows written")
	return nil
}

func (c *Consumer) fanOut(ctx context.Context, eventType enums.OutboxEventType, participants eventParticipants) error {
	recipients := make([]uuid.UUID, 0, 2)
	if participants.BrokerID != uuid.Nil {
		recipients = append(recipients, participants.BrokerID)
	}
	if participants.TruckerID != uuid.Nil && participants.TruckerID != participants.BrokerID {
		recipients = append(recipients, participants.TruckerID)
	}

	var errs []error
	for _, userID := range recipients {
		item := &models.FeedItem{
			UserID:    userID,
			EventType: eventType,
			LoadID:    participants.LoadID,
			BidID:     participants.BidID,
		}
		if err := c.repo.Create(ctx, item); err != nil {
			errs = append(errs, fmt.Errorf("feed row for %s: %w", userID, err))
		}
	}
	return multierr.Combine(errs...)
}
