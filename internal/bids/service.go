package bids

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/internal/loads"
	"github.com/freightlane/loadboard-backend/pkg/db"
	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	pkgerrors "github.com/freightlane/loadboard-backend/pkg/errors"
	"github.com/freightlane/loadboard-backend/pkg/logger"
	"github.com/freightlane/loadboard-backend/pkg/metrics"
	"github.com/freightlane/loadboard-backend/pkg/outbox"
	"github.com/freightlane/loadboard-backend/pkg/outbox/payloads"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

const bidUniqueConstraint = "bids_load_trucker_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type quotaChecker interface {
	CheckAccess(ctx context.Context, kind enums.QuotaKind, truckerID uuid.UUID) (bool, error)
	CheckAccessTx(ctx context.Context, tx *gorm.DB, kind enums.QuotaKind, truckerID uuid.UUID) (bool, error)
	Invalidate(ctx context.Context, truckerID uuid.UUID)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the bid lifecycle: place, edit, broker decisions, undo,
// withdrawal, and fixed-rate booking.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*models.Bid, error)
	Edit(ctx context.Context, input EditInput) (*models.Bid, error)
	Accept(ctx context.Context, input DecisionInput) error
	Reject(ctx context.Context, input DecisionInput) error
	Undo(ctx context.Context, input DecisionInput) error
	Delete(ctx context.Context, input DeleteInput) error
	AcceptFixedRate(ctx context.Context, input FixedRateInput) (*models.Bid, error)
	ListByLoad(ctx context.Context, loadID, actorUserID uuid.UUID, role enums.CallerRole, params pagination.Params) (*BidList, error)
	ListByTrucker(ctx context.Context, truckerID uuid.UUID, params pagination.Params) (*BidList, error)
}

type service struct {
	repo    Repository
	loads   loads.Repository
	quota   quotaChecker
	events  eventEmitter
	tx      txRunner
	metrics *metrics.EngineMetrics
	logg    *logger.Logger
}

// NewService builds the bid engine with the required dependencies.
func NewService(
	repo Repository,
	loadRepo loads.Repository,
	quota quotaChecker,
	events eventEmitter,
	tx txRunner,
	engineMetrics *metrics.EngineMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bid repository required")
	}
	if loadRepo == nil {
		return nil, fmt.Errorf("load repository required")
	}
	if quota == nil {
		return nil, fmt.Errorf("quota evaluator required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		loads:   loadRepo,
		quota:   quota,
		events:  events,
		tx:      tx,
		metrics: engineMetrics,
		logg:    logg,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceInput) (*models.Bid, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("place", time.Since(start)) }()

	if input.LoadID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "load id required")
	}
	if input.TruckerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	// Advisory pre-check against the cached count. The transaction below
	// re-checks against live rows before anything commits.
	allowed, err := s.quota.CheckAccess(ctx, enums.QuotaBidsPerMonth, input.TruckerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.metrics.IncQuotaDenial(enums.QuotaBidsPerMonth.String())
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "monthly bid quota reached")
	}

	var bid *models.Bid
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		load, err := s.findLoad(ctx, tx, input.LoadID)
		if err != nil {
			return err
		}
		if load.Status != enums.LoadStatusPosted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load is not open for bidding")
		}
		if !load.BidEnabled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bidding is disabled for this load")
		}
		if load.BiddingDeadline != nil && time.Now().After(*load.BiddingDeadline) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bidding deadline has passed")
		}

		allowed, err := s.quota.CheckAccessTx(ctx, tx, enums.QuotaBidsPerMonth, input.TruckerID)
		if err != nil {
			return err
		}
		if !allowed {
			s.metrics.IncQuotaDenial(enums.QuotaBidsPerMonth.String())
			return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "monthly bid quota reached")
		}

		created, err := s.repo.WithTx(tx).Create(ctx, &models.Bid{
			LoadID:    input.LoadID,
			TruckerID: input.TruckerID,
			Amount:    input.Amount,
			Status:    enums.BidStatusPending,
		})
		if err != nil {
			if db.IsUniqueViolation(err, bidUniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "bid already placed on this load")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bid")
		}

		event := payloads.BidPlacedEvent{
			BidID:     created.ID,
			LoadID:    load.ID,
			TruckerID: created.TruckerID,
			BrokerID:  load.BrokerID,
			Amount:    created.Amount,
		}
		if err := s.emit(ctx, tx, enums.EventBidPlaced, enums.AggregateBid, created.ID, input.TruckerID, enums.CallerRoleTrucker, event); err != nil {
			return err
		}
		bid = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.quota.Invalidate(ctx, input.TruckerID)
	s.logOp(ctx, bid, "bid placed")
	return bid, nil
}

func (s *service) Edit(ctx context.Context, input EditInput) (*models.Bid, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("edit", time.Since(start)) }()

	if input.BidID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid id required")
	}
	if input.TruckerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	var bid *models.Bid
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := s.findBid(ctx, repo, input.BidID)
		if err != nil {
			return err
		}
		if found.TruckerID != input.TruckerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "bid does not belong to caller")
		}
		if found.Status != enums.BidStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending bids can be edited")
		}

		updated, err := repo.UpdateAmount(ctx, found.ID, input.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bid amount")
		}
		if !updated {
			s.metrics.IncCASConflict("edit")
			return pkgerrors.New(pkgerrors.CodeConflict, "bid state changed")
		}

		load, err := s.findLoad(ctx, tx, found.LoadID)
		if err != nil {
			return err
		}
		event := payloads.BidUpdatedEvent{
			BidID:          found.ID,
			LoadID:         found.LoadID,
			TruckerID:      found.TruckerID,
			BrokerID:       load.BrokerID,
			Amount:         input.Amount,
			PreviousAmount: found.Amount,
		}
		if err := s.emit(ctx, tx, enums.EventBidUpdated, enums.AggregateBid, found.ID, input.TruckerID, enums.CallerRoleTrucker, event); err != nil {
			return err
		}
		found.Amount = input.Amount
		bid = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logOp(ctx, bid, "bid updated")
	return bid, nil
}

func (s *service) Accept(ctx context.Context, input DecisionInput) error {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("accept", time.Since(start)) }()

	if err := validateDecision(input); err != nil {
		return err
	}

	var truckerID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bid, err := s.findBid(ctx, repo, input.BidID)
		if err != nil {
			return err
		}
		load, err := s.findLoad(ctx, tx, bid.LoadID)
		if err != nil {
			return err
		}
		if !actorOwnsLoad(load, input.ActorUserID, input.ActorRole) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "load does not belong to caller")
		}
		if bid.Status != enums.BidStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bid is not pending")
		}
		if load.Status != enums.LoadStatusPosted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load is not open for assignment")
		}
		accepted, err := repo.CountAcceptedForLoad(ctx, load.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count accepted bids")
		}
		if accepted > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load already has an accepted bid")
		}

		allowed, err := s.quota.CheckAccessTx(ctx, tx, enums.QuotaActiveLoads, bid.TruckerID)
		if err != nil {
			return err
		}
		if !allowed {
			s.metrics.IncQuotaDenial(enums.QuotaActiveLoads.String())
			return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "trucker active load quota reached")
		}

		swapped, err := repo.TransitionStatus(ctx, bid.ID, enums.BidStatusPending, enums.BidStatusAccepted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept bid")
		}
		if !swapped {
			s.metrics.IncCASConflict("accept")
			return pkgerrors.New(pkgerrors.CodeConflict, "bid state changed")
		}
		swapped, err = s.loads.WithTx(tx).SetStatus(ctx, load.ID, enums.LoadStatusPosted, enums.LoadStatusInProgress)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign load")
		}
		if !swapped {
			s.metrics.IncCASConflict("accept")
			return pkgerrors.New(pkgerrors.CodeConflict, "load already assigned")
		}

		decision := payloads.BidDecisionEvent{
			BidID:     bid.ID,
			LoadID:    load.ID,
			TruckerID: bid.TruckerID,
			BrokerID:  load.BrokerID,
			Amount:    bid.Amount,
			Status:    enums.BidStatusAccepted,
		}
		if err := s.emit(ctx, tx, enums.EventBidAccepted, enums.AggregateBid, bid.ID, input.ActorUserID, input.ActorRole, decision); err != nil {
			return err
		}
		winner := bid.ID
		assigned := payloads.LoadAssignedEvent{
			LoadID:       load.ID,
			BrokerID:     load.BrokerID,
			TruckerID:    bid.TruckerID,
			WinningBidID: &winner,
			Rate:         bid.Amount,
			FixedRate:    false,
		}
		if err := s.emit(ctx, tx, enums.EventLoadAssigned, enums.AggregateLoad, load.ID, input.ActorUserID, input.ActorRole, assigned); err != nil {
			return err
		}
		truckerID = bid.TruckerID
		return nil
	})
	if err != nil {
		return err
	}

	s.quota.Invalidate(ctx, truckerID)
	return nil
}

func (s *service) Reject(ctx context.Context, input DecisionInput) error {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("reject", time.Since(start)) }()

	if err := validateDecision(input); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bid, err := s.findBid(ctx, repo, input.BidID)
		if err != nil {
			return err
		}
		load, err := s.findLoad(ctx, tx, bid.LoadID)
		if err != nil {
			return err
		}
		if !actorOwnsLoad(load, input.ActorUserID, input.ActorRole) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "load does not belong to caller")
		}
		if bid.Status != enums.BidStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bid is not pending")
		}

		swapped, err := repo.TransitionStatus(ctx, bid.ID, enums.BidStatusPending, enums.BidStatusRejected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject bid")
		}
		if !swapped {
			s.metrics.IncCASConflict("reject")
			return pkgerrors.New(pkgerrors.CodeConflict, "bid state changed")
		}

		event := payloads.BidDecisionEvent{
			BidID:     bid.ID,
			LoadID:    load.ID,
			TruckerID: bid.TruckerID,
			BrokerID:  load.BrokerID,
			Amount:    bid.Amount,
			Status:    enums.BidStatusRejected,
		}
		return s.emit(ctx, tx, enums.EventBidRejected, enums.AggregateBid, bid.ID, input.ActorUserID, input.ActorRole, event)
	})
}

func (s *service) Undo(ctx context.Context, input DecisionInput) error {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("undo", time.Since(start)) }()

	if err := validateDecision(input); err != nil {
		return err
	}

	var truckerID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bid, err := s.findBid(ctx, repo, input.BidID)
		if err != nil {
			return err
		}
		load, err := s.findLoad(ctx, tx, bid.LoadID)
		if err != nil {
			return err
		}
		if !actorOwnsLoad(load, input.ActorUserID, input.ActorRole) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "load does not belong to caller")
		}

		switch bid.Status {
		case enums.BidStatusAccepted:
			swapped, err := repo.TransitionStatus(ctx, bid.ID, enums.BidStatusAccepted, enums.BidStatusPending)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "undo bid decision")
			}
			if !swapped {
				s.metrics.IncCASConflict("undo")
				return pkgerrors.New(pkgerrors.CodeConflict, "bid state changed")
			}
			swapped, err = s.loads.WithTx(tx).SetStatus(ctx, load.ID, enums.LoadStatusInProgress, enums.LoadStatusPosted)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen load")
			}
			if !swapped {
				s.metrics.IncCASConflict("undo")
				return pkgerrors.New(pkgerrors.CodeConflict, "load state changed")
			}

			now := time.Now().UTC()
			undone := payloads.BidUndoneEvent{
				BidID:     bid.ID,
				LoadID:    load.ID,
				TruckerID: bid.TruckerID,
				BrokerID:  load.BrokerID,
				UndoneAt:  now,
			}
			if err := s.emit(ctx, tx, enums.EventBidUndone, enums.AggregateBid, bid.ID, input.ActorUserID, input.ActorRole, undone); err != nil {
				return err
			}
			reopened := payloads.LoadReopenedEvent{
				LoadID:     load.ID,
				BrokerID:   load.BrokerID,
				ReopenedAt: now,
			}
			if err := s.emit(ctx, tx, enums.EventLoadReopened, enums.AggregateLoad, load.ID, input.ActorUserID, input.ActorRole, reopened); err != nil {
				return err
			}

		case enums.BidStatusRejected:
			swapped, err := repo.TransitionStatus(ctx, bid.ID, enums.BidStatusRejected, enums.BidStatusPending)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "undo bid decision")
			}
			if !swapped {
				s.metrics.IncCASConflict("undo")
				return pkgerrors.New(pkgerrors.CodeConflict, "bid state changed")
			}
			undone := payloads.BidUndoneEvent{
				BidID:     bid.ID,
				LoadID:    load.ID,
				TruckerID: bid.TruckerID,
				BrokerID:  load.BrokerID,
				UndoneAt:  time.Now().UTC(),
			}
			if err := s.emit(ctx, tx, enums.EventBidUndone, enums.AggregateBid, bid.ID, input.ActorUserID, input.ActorRole, undone); err != nil {
				return err
			}

		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bid is already pending")
		}

		truckerID = bid.TruckerID
		return nil
	})
	if err != nil {
		return err
	}

	s.quota.Invalidate(ctx, truckerID)
	return nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("delete", time.Since(start)) }()

	if input.BidID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "bid id required")
	}
	if input.TruckerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bid, err := s.findBid(ctx, repo, input.BidID)
		if err != nil {
			return err
		}
		if bid.TruckerID != input.TruckerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "bid does not belong to caller")
		}
		if bid.Status != enums.BidStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending bids can be withdrawn")
		}

		deleted, err := repo.DeletePending(ctx, bid.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bid")
		}
		if !deleted {
			s.metrics.IncCASConflict("delete")
			return pkgerrors.New(pkgerrors.CodeConflict, "bid state changed")
		}

		load, err := s.findLoad(ctx, tx, bid.LoadID)
		if err != nil {
			return err
		}
		event := payloads.BidDeletedEvent{
			BidID:     bid.ID,
			LoadID:    bid.LoadID,
			TruckerID: bid.TruckerID,
			BrokerID:  load.BrokerID,
			DeletedAt: time.Now().UTC(),
		}
		return s.emit(ctx, tx, enums.EventBidDeleted, enums.AggregateBid, bid.ID, input.TruckerID, enums.CallerRoleTrucker, event)
	})
	if err != nil {
		return err
	}

	s.quota.Invalidate(ctx, input.TruckerID)
	return nil
}

func (s *service) AcceptFixedRate(ctx context.Context, input FixedRateInput) (*models.Bid, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("accept_fixed_rate", time.Since(start)) }()

	if input.LoadID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "load id required")
	}
	if input.TruckerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	allowed, err := s.quota.CheckAccess(ctx, enums.QuotaActiveLoads, input.TruckerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.metrics.IncQuotaDenial(enums.QuotaActiveLoads.String())
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "trucker active load quota reached")
	}

	var bid *models.Bid
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		load, err := s.findLoad(ctx, tx, input.LoadID)
		if err != nil {
			return err
		}
		if load.Status != enums.LoadStatusPosted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load is not open for booking")
		}
		if load.FixedRate == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load has no fixed rate")
		}
		if load.BidEnabled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "load accepts bids, not fixed-rate booking")
		}
		existing, err := repo.FindByLoadAndTrucker(ctx, load.ID, input.TruckerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up existing bid")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "bid already placed on this load")
		}

		allowed, err := s.quota.CheckAccessTx(ctx, tx, enums.QuotaActiveLoads, input.TruckerID)
		if err != nil {
			return err
		}
		if !allowed {
			s.metrics.IncQuotaDenial(enums.QuotaActiveLoads.String())
			return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "trucker active load quota reached")
		}

		created, err := repo.Create(ctx, &models.Bid{
			LoadID:    load.ID,
			TruckerID: input.TruckerID,
			Amount:    *load.FixedRate,
			Status:    enums.BidStatusAccepted,
		})
		if err != nil {
			if db.IsUniqueViolation(err, bidUniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "bid already placed on this load")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create fixed-rate bid")
		}
		swapped, err := s.loads.WithTx(tx).SetStatus(ctx, load.ID, enums.LoadStatusPosted, enums.LoadStatusInProgress)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign load")
		}
		if !swapped {
			s.metrics.IncCASConflict("accept_fixed_rate")
			return pkgerrors.New(pkgerrors.CodeConflict, "load already assigned")
		}

		decision := payloads.BidDecisionEvent{
			BidID:     created.ID,
			LoadID:    load.ID,
			TruckerID: created.TruckerID,
			BrokerID:  load.BrokerID,
			Amount:    created.Amount,
			Status:    enums.BidStatusAccepted,
		}
		if err := s.emit(ctx, tx, enums.EventBidAccepted, enums.AggregateBid, created.ID, input.TruckerID, enums.CallerRoleTrucker, decision); err != nil {
			return err
		}
		winner := created.ID
		assigned := payloads.LoadAssignedEvent{
			LoadID:       load.ID,
			BrokerID:     load.BrokerID,
			TruckerID:    created.TruckerID,
			WinningBidID: &winner,
			Rate:         created.Amount,
			FixedRate:    true,
		}
		if err := s.emit(ctx, tx, enums.EventLoadAssigned, enums.AggregateLoad, load.ID, input.TruckerID, enums.CallerRoleTrucker, assigned); err != nil {
			return err
		}
		bid = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.quota.Invalidate(ctx, input.TruckerID)
	s.logOp(ctx, bid, "fixed-rate load booked")
	return bid, nil
}

func (s *service) ListByLoad(ctx context.Context, loadID, actorUserID uuid.UUID, role enums.CallerRole, params pagination.Params) (*BidList, error) {
	if loadID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "load id required")
	}
	load, err := s.loads.FindByID(ctx, loadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load load")
	}
	if !actorOwnsLoad(load, actorUserID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "load does not belong to caller")
	}
	list, err := s.repo.ListByLoad(ctx, loadID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list load bids")
	}
	return list, nil
}

func (s *service) ListByTrucker(ctx context.Context, truckerID uuid.UUID, params pagination.Params) (*BidList, error) {
	if truckerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByTrucker(ctx, truckerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trucker bids")
	}
	return list, nil
}

func (s *service) findBid(ctx context.Context, repo Repository, bidID uuid.UUID) (*models.Bid, error) {
	bid, err := repo.FindByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
	}
	return bid, nil
}

func (s *service) findLoad(ctx context.Context, tx *gorm.DB, loadID uuid.UUID) (*models.Load, error) {
	load, err := s.loads.WithTx(tx).FindByID(ctx, loadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load load")
	}
	return load, nil
}

func (s *service) emit(
	ctx context.Context,
	tx *gorm.DB,
	eventType enums.OutboxEventType,
	aggregateType enums.OutboxAggregateType,
	aggregateID uuid.UUID,
	actorID uuid.UUID,
	actorRole enums.CallerRole,
	data interface{},
) error {
	err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: actorRole.String()},
		Data:          data,
		Version:       1,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue outbox event")
	}
	return nil
}

func (s *service) logOp(ctx context.Context, bid *models.Bid, msg string) {
	if s.logg == nil || bid == nil {
		return
	}
	logCtx := s.logg.WithLoadID(s.logg.WithBidID(ctx, bid.ID.String()), bid.LoadID.String())
	s.logg.Info(logCtx, msg)
}

func validateDecision(input DecisionInput) error {
	if input.BidID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "bid id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

func actorOwnsLoad(load *models.Load, actorUserID uuid.UUID, role enums.CallerRole) bool {
	if role == enums.CallerRoleAdmin {
		return true
	}
	return load.BrokerID == actorUserID
}
