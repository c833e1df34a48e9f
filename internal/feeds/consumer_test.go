package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/logger"
	"github.com/freightlane/loadboard-backend/pkg/outbox"
)

type fakeWriter struct {
	items []*models.FeedItem
	err   error
}

func (f *fakeWriter) Create(ctx context.Context, item *models.FeedItem) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, item)
	return nil
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	return f.deleteFn(ctx, consumer, eventID)
}

func freshIdempotency() fakeIdempotency {
	return fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
}

func mustConsumer(t *testing.T, writer *fakeWriter, manager fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(writer, nil, manager, logger.New(logger.Options{
		ServiceName: "feeds-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	}))
	if err != nil {
		t.Fatalf("failed to build consumer: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	bytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       bytes,
	}
}

func TestFeedConsumerWritesRowsForBothParties(t *testing.T) {
	writer := &fakeWriter{}
	consumer := mustConsumer(t, writer, freshIdempotency())

	bidID := uuid.New()
	loadID := uuid.New()
	brokerID := uuid.New()
	truckerID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), map[string]any{
		"bid_id":     bidID.String(),
		"load_id":    loadID.String(),
		"broker_id":  brokerID.String(),
		"trucker_id": truckerID.String(),
	})

	if err := consumer.Process(context.Background(), enums.EventBidPlaced, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(writer.items) != 2 {
		t.Fatalf("expected 2 feed rows, got %d", len(writer.items))
	}
	if writer.items[0].UserID != brokerID || writer.items[1].UserID != truckerID {
		t.Fatalf("unexpected recipients: %v, %v", writer.items[0].UserID, writer.items[1].UserID)
	}
	for _, item := range writer.items {
		if item.LoadID != loadID {
			t.Fatalf("load id mismatch")
		}
		if item.BidID == nil || *item.BidID != bidID {
			t.Fatalf("bid id mismatch")
		}
		if item.EventType != enums.EventBidPlaced {
			t.Fatalf("event type mismatch: %s", item.EventType)
		}
	}
}

func TestFeedConsumerBrokerOnlyForReopen(t *testing.T) {
	writer := &fakeWriter{}
	consumer := mustConsumer(t, writer, freshIdempotency())

	brokerID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), map[string]any{
		"load_id":   uuid.NewString(),
		"broker_id": brokerID.String(),
	})

	if err := consumer.Process(context.Background(), enums.EventLoadReopened, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(writer.items) != 1 {
		t.Fatalf("expected 1 feed row, got %d", len(writer.items))
	}
	if writer.items[0].UserID != brokerID {
		t.Fatalf("expected broker recipient")
	}
	if writer.items[0].BidID != nil {
		t.Fatalf("bid id should be nil for load events")
	}
}

func TestFeedConsumerIsIdempotent(t *testing.T) {
	writer := &fakeWriter{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, writer, manager)

	envelope := buildEnvelope(t, uuid.New(), map[string]any{
		"load_id":   uuid.NewString(),
		"broker_id": uuid.NewString(),
	})
	if err := consumer.Process(context.Background(), enums.EventBidPlaced, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(writer.items) != 0 {
		t.Fatalf("expected no rows when idempotent")
	}
}

func TestFeedConsumerSkipsUnknownEvent(t *testing.T) {
	writer := &fakeWriter{}
	consumer := mustConsumer(t, writer, freshIdempotency())

	envelope := buildEnvelope(t, uuid.New(), map[string]any{})
	if err := consumer.Process(context.Background(), enums.OutboxEventType("billing.invoiced"), envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(writer.items) != 0 {
		t.Fatalf("expected no rows for unknown event")
	}
}

func TestFeedConsumerDeletesKeyOnWriteFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("db down")}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, writer, manager)

	envelope := buildEnvelope(t, uuid.New(), map[string]any{
		"load_id":   uuid.NewString(),
		"broker_id": uuid.NewString(),
	})
	if err := consumer.Process(context.Background(), enums.EventBidPlaced, envelope); err == nil {
		t.Fatalf("expected error when feed write fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on failure")
	}
}
