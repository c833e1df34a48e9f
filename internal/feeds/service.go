package feeds

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/freightlane/loadboard-backend/pkg/errors"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

const maxMarkSeenBatch = 200

// Service exposes the per-user activity feed.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*FeedList, error)
	MarkSeen(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// NewService builds a feed service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("feeds repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*FeedList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return s.repo.ListByUser(ctx, userID, params)
}

func (s *service) MarkSeen(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	if len(itemIDs) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item ids required")
	}
	if len(itemIDs) > maxMarkSeenBatch {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "too many items in one request")
	}
	for _, id := range itemIDs {
		if id == uuid.Nil {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "item ids must be non-zero")
		}
	}
	return s.repo.MarkSeen(ctx, userID, itemIDs)
}
