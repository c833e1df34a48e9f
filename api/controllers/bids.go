package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightlane/loadboard-backend/api/responses"
	"github.com/freightlane/loadboard-backend/api/validators"
	"github.com/freightlane/loadboard-backend/internal/bids"
	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/logger"
)

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type editBidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type bidResponse struct {
	ID        uuid.UUID       `json:"id"`
	LoadID    uuid.UUID       `json:"load_id"`
	TruckerID uuid.UUID       `json:"trucker_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    enums.BidStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type bidListResponse struct {
	Bids       []bidResponse `json:"bids"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func bidResponseFromModel(m *models.Bid) bidResponse {
	return bidResponse{
		ID:        m.ID,
		LoadID:    m.LoadID,
		TruckerID: m.TruckerID,
		Amount:    m.Amount,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func bidListResponseFromResult(list *bids.BidList) bidListResponse {
	out := bidListResponse{
		Bids:       make([]bidResponse, 0, len(list.Bids)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Bids {
		out.Bids = append(out.Bids, bidResponseFromModel(&list.Bids[i]))
	}
	return out
}

// PlaceBid submits the authenticated trucker's bid on an open load.
func PlaceBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loadID, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req placeBidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.Place(r.Context(), bids.PlaceInput{
			LoadID:    loadID,
			TruckerID: actorID,
			Amount:    req.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bidResponseFromModel(bid))
	}
}

// EditBid changes the amount of the trucker's still-pending bid.
func EditBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bidID, err := pathUUID(r, "bidID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req editBidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.Edit(r.Context(), bids.EditInput{
			BidID:     bidID,
			TruckerID: actorID,
			Amount:    req.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bidResponseFromModel(bid))
	}
}

// DeleteBid withdraws the trucker's pending bid.
func DeleteBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bidID, err := pathUUID(r, "bidID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), bids.DeleteInput{BidID: bidID, TruckerID: actorID}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AcceptBid assigns the load to the bidding trucker.
func AcceptBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return bidDecision(svc.Accept, "accepted", logg)
}

// RejectBid declines a pending bid without touching the load.
func RejectBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return bidDecision(svc.Reject, "rejected", logg)
}

// UndoBidDecision reverts an accepted or rejected bid back to pending.
func UndoBidDecision(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return bidDecision(svc.Undo, "pending", logg)
}

func bidDecision(op func(ctx context.Context, input bids.DecisionInput) error, status string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bidID, err := pathUUID(r, "bidID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := callerRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = op(r.Context(), bids.DecisionInput{
			BidID:       bidID,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

// AcceptFixedRate books a fixed-rate load directly at its posted rate.
func AcceptFixedRate(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loadID, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.AcceptFixedRate(r.Context(), bids.FixedRateInput{
			LoadID:    loadID,
			TruckerID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bidResponseFromModel(bid))
	}
}

// ListLoadBids returns the bids on a load, visible to its broker.
func ListLoadBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loadID, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := callerRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByLoad(r.Context(), loadID, actorID, role, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bidListResponseFromResult(list))
	}
}

// ListMyBids returns the authenticated trucker's bids across loads.
func ListMyBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListByTrucker(r.Context(), actorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bidListResponseFromResult(list))
	}
}
