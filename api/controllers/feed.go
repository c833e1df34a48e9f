package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightlane/loadboard-backend/api/responses"
	"github.com/freightlane/loadboard-backend/api/validators"
	"github.com/freightlane/loadboard-backend/internal/feeds"
	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	pkgerrors "github.com/freightlane/loadboard-backend/pkg/errors"
	"github.com/freightlane/loadboard-backend/pkg/logger"
)

type markSeenRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,required"`
}

type feedItemResponse struct {
	ID        uuid.UUID             `json:"id"`
	EventType enums.OutboxEventType `json:"event_type"`
	LoadID    uuid.UUID             `json:"load_id"`
	BidID     *uuid.UUID            `json:"bid_id,omitempty"`
	SeenAt    *time.Time            `json:"seen_at,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

type feedListResponse struct {
	Items      []feedItemResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func feedItemResponseFromModel(m *models.FeedItem) feedItemResponse {
	return feedItemResponse{
		ID:        m.ID,
		EventType: m.EventType,
		LoadID:    m.LoadID,
		BidID:     m.BidID,
		SeenAt:    m.SeenAt,
		CreatedAt: m.CreatedAt,
	}
}

// ListFeed returns the authenticated user's activity feed, newest first.
func ListFeed(svc feeds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := feedListResponse{
			Items:      make([]feedItemResponse, 0, len(list.Items)),
			NextCursor: list.NextCursor,
		}
		for i := range list.Items {
			out.Items = append(out.Items, feedItemResponseFromModel(&list.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// MarkFeedSeen stamps the given feed items as seen for the caller.
func MarkFeedSeen(svc feeds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req markSeenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
		for _, raw := range req.ItemIDs {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			itemIDs = append(itemIDs, id)
		}

		updated, err := svc.MarkSeen(r.Context(), actorID, itemIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
