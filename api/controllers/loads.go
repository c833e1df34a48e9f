package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightlane/loadboard-backend/api/middleware"
	"github.com/freightlane/loadboard-backend/api/responses"
	"github.com/freightlane/loadboard-backend/api/validators"
	"github.com/freightlane/loadboard-backend/internal/loads"
	"github.com/freightlane/loadboard-backend/pkg/db/models"
	pkgerrors "github.com/freightlane/loadboard-backend/pkg/errors"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/logger"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

// maxLocationLen caps the free-text origin/destination fields.
const maxLocationLen = 256

type createLoadRequest struct {
	Origin          string           `json:"origin" validate:"required"`
	Destination     string           `json:"destination" validate:"required"`
	BidEnabled      *bool            `json:"bid_enabled,omitempty"`
	FixedRate       *decimal.Decimal `json:"fixed_rate,omitempty"`
	BiddingDeadline *time.Time       `json:"bidding_deadline,omitempty"`
	BudgetAmount    *decimal.Decimal `json:"budget_amount,omitempty"`
	BudgetCurrency  string           `json:"budget_currency,omitempty" validate:"omitempty,len=3"`
}

type updateBiddingRequest struct {
	BidEnabled      *bool            `json:"bid_enabled,omitempty"`
	FixedRate       *decimal.Decimal `json:"fixed_rate,omitempty"`
	ClearFixedRate  bool             `json:"clear_fixed_rate,omitempty"`
	BiddingDeadline *time.Time       `json:"bidding_deadline,omitempty"`
	ClearDeadline   bool             `json:"clear_deadline,omitempty"`
}

type loadResponse struct {
	ID              uuid.UUID        `json:"id"`
	BrokerID        uuid.UUID        `json:"broker_id"`
	Origin          string           `json:"origin"`
	Destination     string           `json:"destination"`
	Status          enums.LoadStatus `json:"status"`
	BidEnabled      bool             `json:"bid_enabled"`
	FixedRate       *decimal.Decimal `json:"fixed_rate,omitempty"`
	BiddingDeadline *time.Time       `json:"bidding_deadline,omitempty"`
	BudgetAmount    *decimal.Decimal `json:"budget_amount,omitempty"`
	BudgetCurrency  string           `json:"budget_currency"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type loadSummaryResponse struct {
	loadResponse
	PendingBids int64 `json:"pending_bids"`
}

type loadListResponse struct {
	Loads      []loadSummaryResponse `json:"loads"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

func loadResponseFromModel(m *models.Load) loadResponse {
	return loadResponse{
		ID:              m.ID,
		BrokerID:        m.BrokerID,
		Origin:          m.Origin,
		Destination:     m.Destination,
		Status:          m.Status,
		BidEnabled:      m.BidEnabled,
		FixedRate:       m.FixedRate,
		BiddingDeadline: m.BiddingDeadline,
		BudgetAmount:    m.BudgetAmount,
		BudgetCurrency:  m.BudgetCurrency,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func loadListResponseFromResult(list *loads.LoadList) loadListResponse {
	out := loadListResponse{
		Loads:      make([]loadSummaryResponse, 0, len(list.Loads)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Loads {
		out.Loads = append(out.Loads, loadSummaryResponse{
			loadResponse: loadResponseFromModel(&list.Loads[i].Load),
			PendingBids:  list.Loads[i].PendingBids,
		})
	}
	return out
}

// CreateLoad posts a new load owned by the authenticated broker.
func CreateLoad(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createLoadRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		load, err := svc.Create(r.Context(), loads.CreateInput{
			BrokerID:        actorID,
			Origin:          validators.SanitizeString(req.Origin, maxLocationLen),
			Destination:     validators.SanitizeString(req.Destination, maxLocationLen),
			BidEnabled:      req.BidEnabled,
			FixedRate:       req.FixedRate,
			BiddingDeadline: req.BiddingDeadline,
			BudgetAmount:    req.BudgetAmount,
			BudgetCurrency:  req.BudgetCurrency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, loadResponseFromModel(load))
	}
}

// GetLoad returns a single load by id.
func GetLoad(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loadID, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		load, err := svc.Get(r.Context(), loadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loadResponseFromModel(load))
	}
}

// UpdateLoadBidding adjusts bid_enabled, fixed_rate, and the bidding deadline
// on a posted load.
func UpdateLoadBidding(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req updateBiddingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.UpdateBidding(r.Context(), loads.UpdateBiddingInput{
			LoadID:          loadID,
			ActorUserID:     actorID,
			ActorRole:       middleware.RoleFromContext(r.Context()),
			BidEnabled:      req.BidEnabled,
			FixedRate:       req.FixedRate,
			ClearFixedRate:  req.ClearFixedRate,
			BiddingDeadline: req.BiddingDeadline,
			ClearDeadline:   req.ClearDeadline,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// CompleteLoad marks an in-progress load as delivered.
func CompleteLoad(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return loadTransition(svc.Complete, "completed", logg)
}

// CancelLoad withdraws a posted load from the board.
func CancelLoad(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return loadTransition(svc.Cancel, "cancelled", logg)
}

func loadTransition(
	op func(ctx context.Context, loadID, actorUserID uuid.UUID, role enums.CallerRole) error,
	status string,
	logg *logger.Logger,
) http.HandlerFunc {
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

		if err := op(r.Context(), loadID, actorID, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

// ListBrokerLoads returns the authenticated broker's loads with pending bid counts.
func ListBrokerLoads(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListByBroker(r.Context(), actorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loadListResponseFromResult(list))
	}
}

// ListOpenLoads returns posted loads any trucker can bid on.
func ListOpenLoads(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOpen(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loadListResponseFromResult(list))
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid caller identity")
	}
	return id, nil
}

func callerRole(r *http.Request) (enums.CallerRole, error) {
	role, err := enums.ParseCallerRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown caller role")
	}
	return role, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func listParams(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	params.Limit = limit
	return params, nil
}
