package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freightlane/loadboard-backend/internal/feeds"
	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

type testFeedsService struct {
	listFn     func(ctx context.Context, userID uuid.UUID, params pagination.Params) (*feeds.FeedList, error)
	markSeenFn func(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
}

func (s *testFeedsService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*feeds.FeedList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID, params)
	}
	return nil, nil
}

func (s *testFeedsService) MarkSeen(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if s.markSeenFn != nil {
		return s.markSeenFn(ctx, userID, itemIDs)
	}
	return 0, nil
}

func TestListFeedSuccess(t *testing.T) {
	userID := uuid.New()
	bidID := uuid.New()
	item := models.FeedItem{
		ID:        uuid.New(),
		UserID:    userID,
		EventType: enums.EventBidAccepted,
		LoadID:    uuid.New(),
		BidID:     &bidID,
		CreatedAt: time.Now().UTC(),
	}
	svc := &testFeedsService{
		listFn: func(ctx context.Context, uid uuid.UUID, params pagination.Params) (*feeds.FeedList, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return &feeds.FeedList{Items: []models.FeedItem{item}, NextCursor: "more"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	req = asCaller(req, userID, enums.CallerRoleTrucker)

	resp := httptest.NewRecorder()
	ListFeed(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data feedListResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(envelope.Data.Items))
	}
	if envelope.Data.Items[0].EventType != enums.EventBidAccepted {
		t.Fatalf("unexpected event type %s", envelope.Data.Items[0].EventType)
	}
	if envelope.Data.NextCursor != "more" {
		t.Fatalf("unexpected cursor %q", envelope.Data.NextCursor)
	}
}

func TestListFeedMissingCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	resp := httptest.NewRecorder()
	ListFeed(&testFeedsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMarkFeedSeenSuccess(t *testing.T) {
	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	svc := &testFeedsService{
		markSeenFn: func(ctx context.Context, uid uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if len(itemIDs) != 2 || itemIDs[0] != first || itemIDs[1] != second {
				t.Fatalf("unexpected ids %v", itemIDs)
			}
			return 2, nil
		},
	}

	body := strings.NewReader(`{"item_ids":["` + first.String() + `","` + second.String() + `"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feed/seen", body)
	req = asCaller(req, userID, enums.CallerRoleBroker)

	resp := httptest.NewRecorder()
	MarkFeedSeen(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 2 {
		t.Fatalf("expected 2 updated, got %d", envelope.Data["updated"])
	}
}

func TestMarkFeedSeenRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feed/seen", strings.NewReader(`{"item_ids":["nope"]}`))
	req = asCaller(req, uuid.New(), enums.CallerRoleBroker)
	resp := httptest.NewRecorder()
	MarkFeedSeen(&testFeedsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkFeedSeenRequiresIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feed/seen", strings.NewReader(`{"item_ids":[]}`))
	req = asCaller(req, uuid.New(), enums.CallerRoleBroker)
	resp := httptest.NewRecorder()
	MarkFeedSeen(&testFeedsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
