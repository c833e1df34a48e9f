package loads

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	pkgerrors "github.com/freightlane/loadboard-backend/pkg/errors"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines load operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Load, error)
	Get(ctx context.Context, loadID uuid.UUID) (*models.Load, error)
	UpdateBidding(ctx context.Context, input UpdateBiddingInput) error
	Complete(ctx context.Context, loadID, actorUserID uuid.UUID, actorRole enums.CallerRole) error
	Cancel(ctx context.Context, loadID, actorUserID uuid.UUID, actorRole enums.CallerRole) error
	ListByBroker(ctx context.Context, brokerID uuid.UUID, params pagination.Params) (*LoadList, error)
	ListOpen(ctx context.Context, params pagination.Params) (*LoadList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a load service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loads repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Load, error) {
	if input.BrokerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Origin) == "" || strings.TrimSpace(input.Destination) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination required")
	}
	if input.FixedRate != nil && !input.FixedRate.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed rate must be positive")
	}
	if input.BudgetAmount != nil && !input.BudgetAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget must be positive")
	}

	bidEnabled := true
	if input.BidEnabled != nil {
		bidEnabled = *input.BidEnabled
	}
	if !bidEnabled && input.FixedRate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed rate required when bidding is disabled")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.BudgetCurrency))
	if currency == "" {
		currency = "USD"
	}

	load := &models.Load{
		BrokerID:        input.BrokerID,
		Origin:          strings.TrimSpace(input.Origin),
		Destination:     strings.TrimSpace(input.Destination),
		Status:          enums.LoadStatusPosted,
		BidEnabled:      bidEnabled,
		FixedRate:       input.FixedRate,
		BiddingDeadline: input.BiddingDeadline,
		BudgetAmount:    input.BudgetAmount,
		BudgetCurrency:  currency,
	}
	created, err := s.repo.Create(ctx, load)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create load")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, loadID uuid.UUID) (*models.Load, error) {
	if loadID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "load id required")
	}
	load, err := s.repo.FindByID(ctx, loadID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load load")
	}
	return load, nil
}

func (s *service) UpdateBidding(ctx context.Context, input UpdateBiddingInput) error {
	if input.LoadID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "load id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.FixedRate != nil && !input.FixedRate.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "fixed rate must be positive")
	}

	updates := map[string]any{}
	if input.BidEnabled != nil {
		updates["bid_enabled"] = *input.BidEnabled
	}
	if input.ClearFixedRate {
		updates["fixed_rate"] = nil
	} else if input.FixedRate != nil {
		updates["fixed_rate"] = *input.FixedRate
	}
	if input.ClearDeadline {
		updates["bidding_deadline"] = nil
	} else if input.BiddingDeadline != nil {
		updates["bidding_deadline"] = *input.BiddingDeadline
	}
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no bidding fields to update")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		load, err := repo.FindByID(ctx, input.LoadID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load load")
		}
		if !actorOwnsLoad(load, input.ActorUserID, enums.CallerRole(input.ActorRole)) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "load does not belong to caller")
		}
		if load.Status != enums.LoadStatusPosted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bidding controls editable only while posted")
		}

		updated, err := repo.UpdateBidding(ctx, load.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bidding controls")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeConflict, "load state changed")
		}
		return nil
	})
}

func (s *service) Complete(ctx context.Context, loadID, actorUserID uuid.UUID, actorRole enums.CallerRole) error {
	return s.transition(ctx, loadID, actorUserID, actorRole, enums.LoadStatusInProgress, enums.LoadStatusCompleted, "load must be in progress to complete")
}

func (s *service) Cancel(ctx context.Context, loadID, actorUserID uuid.UUID, actorRole enums.CallerRole) error {
	return s.transition(ctx, loadID, actorUserID, actorRole, enums.LoadStatusPosted, enums.LoadStatusCancelled, "only posted loads can be cancelled")
}

func (s *service) transition(ctx context.Context, loadID, actorUserID uuid.UUID, actorRole enums.CallerRole, expected, next enums.LoadStatus, stateMsg string) error {
	if loadID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "load id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		load, err := repo.FindByID(ctx, loadID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load load")
		}
		if !actorOwnsLoad(load, actorUserID, actorRole) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "load does not belong to caller")
		}
		if load.Status != expected {
			return pkgerrors.New(pkgerrors.CodeStateConflict, stateMsg)
		}

		swapped, err := repo.SetStatus(ctx, load.ID, expected, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update load status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeConflict, "load state changed")
		}
		return nil
	})
}

func (s *service) ListByBroker(ctx context.Context, brokerID uuid.UUID, params pagination.Params) (*LoadList, error) {
	if brokerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "broker id required")
	}
	list, err := s.repo.ListByBroker(ctx, brokerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list broker loads")
	}
	return list, nil
}

func (s *service) ListOpen(ctx context.Context, params pagination.Params) (*LoadList, error) {
	list, err := s.repo.ListOpen(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open loads")
	}
	return list, nil
}

func actorOwnsLoad(load *models.Load, actorUserID uuid.UUID, role enums.CallerRole) bool {
	if role == enums.CallerRoleAdmin {
		return true
	}
	return load.BrokerID == actorUserID
}
