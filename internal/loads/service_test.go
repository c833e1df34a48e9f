package loads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freightlane/loadboard-backend/pkg/db/models"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	pkgerrors "github.com/freightlane/loadboard-backend/pkg/errors"
	"github.com/freightlane/loadboard-backend/pkg/pagination"
)

type stubLoadRepo struct {
	load *models.Load

	createErr     error
	findErr       error
	setStatusOK   bool
	setStatusErr  error
	updateOK      bool
	updateErr     error
	lastUpdates   map[string]any
	setStatusNext enums.LoadStatus
}

func (s *stubLoadRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLoadRepo) Create(ctx context.Context, load *models.Load) (*models.Load, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	load.ID = uuid.New()
	s.load = load
	return load, nil
}

func (s *stubLoadRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.load == nil || s.load.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.load
	return &copied, nil
}

func (s *stubLoadRepo) SetStatus(ctx context.Context, loadID uuid.UUID, expected, next enums.LoadStatus) (bool, error) {
	if s.setStatusErr != nil {
		return false, s.setStatusErr
	}
	s.setStatusNext = next
	return s.setStatusOK, nil
}

func (s *stubLoadRepo) UpdateBidding(ctx context.Context, loadID uuid.UUID, updates map[string]any) (bool, error) {
	if s.updateErr != nil {
		return false, s.updateErr
	}
	s.lastUpdates = updates
	return s.updateOK, nil
}

func (s *stubLoadRepo) ListByBroker(ctx context.Context, brokerID uuid.UUID, params pagination.Params) (*LoadList, error) {
	return &LoadList{}, nil
}

func (s *stubLoadRepo) ListOpen(ctx context.Context, params pagination.Params) (*LoadList, error) {
	return &LoadList{}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestLoadService(t *testing.T, repo Repository) Service {
	t.Helper()

	svc, err := NewService(repo, stubTxRunner{})
	require.NoError(t, err)
	return svc
}

func postedLoad(brokerID uuid.UUID) *models.Load {
	return &models.Load{
		ID:          uuid.New(),
		BrokerID:    brokerID,
		Origin:      "Reno, NV",
		Destination: "Boise, ID",
		Status:      enums.LoadStatusPosted,
		BidEnabled:  true,
	}
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	repo := &stubLoadRepo{}
	svc := newTestLoadService(t, repo)

	broker := uuid.New()
	created, err := svc.Create(context.Background(), CreateInput{
		BrokerID:    broker,
		Origin:      "  Reno, NV ",
		Destination: "Boise, ID",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reno, NV", created.Origin)
	assert.True(t, created.BidEnabled)
	assert.Equal(t, "USD", created.BudgetCurrency)
	assert.Equal(t, enums.LoadStatusPosted, created.Status)

	_, err = svc.Create(context.Background(), CreateInput{BrokerID: broker, Origin: " ", Destination: "Boise, ID"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateInput{Origin: "a", Destination: "b"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestCreateBiddingDisabledRequiresFixedRate(t *testing.T) {
	repo := &stubLoadRepo{}
	svc := newTestLoadService(t, repo)

	disabled := false
	_, err := svc.Create(context.Background(), CreateInput{
		BrokerID:    uuid.New(),
		Origin:      "Reno, NV",
		Destination: "Boise, ID",
		BidEnabled:  &disabled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	rate := decimal.RequireFromString("2100.00")
	created, err := svc.Create(context.Background(), CreateInput{
		BrokerID:    uuid.New(),
		Origin:      "Reno, NV",
		Destination: "Boise, ID",
		BidEnabled:  &disabled,
		FixedRate:   &rate,
	})
	require.NoError(t, err)
	assert.False(t, created.BidEnabled)
	assert.True(t, created.FixedRate.Equal(rate))
}

func TestUpdateBiddingOwnershipAndState(t *testing.T) {
	broker := uuid.New()
	load := postedLoad(broker)
	repo := &stubLoadRepo{load: load, updateOK: true}
	svc := newTestLoadService(t, repo)

	disabled := false
	err := svc.UpdateBidding(context.Background(), UpdateBiddingInput{
		LoadID:      load.ID,
		ActorUserID: uuid.New(),
		ActorRole:   string(enums.CallerRoleBroker),
		BidEnabled:  &disabled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = svc.UpdateBidding(context.Background(), UpdateBiddingInput{
		LoadID:      load.ID,
		ActorUserID: broker,
		ActorRole:   string(enums.CallerRoleBroker),
		BidEnabled:  &disabled,
	})
	require.NoError(t, err)
	assert.Equal(t, false, repo.lastUpdates["bid_enabled"])

	load.Status = enums.LoadStatusInProgress
	err = svc.UpdateBidding(context.Background(), UpdateBiddingInput{
		LoadID:      load.ID,
		ActorUserID: broker,
		ActorRole:   string(enums.CallerRoleBroker),
		BidEnabled:  &disabled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateBiddingClearFieldsAndConflict(t *testing.T) {
	broker := uuid.New()
	load := postedLoad(broker)
	deadline := time.Now().UTC().Add(24 * time.Hour)
	load.BiddingDeadline = &deadline
	repo := &stubLoadRepo{load: load, updateOK: true}
	svc := newTestLoadService(t, repo)

	err := svc.UpdateBidding(context.Background(), UpdateBiddingInput{
		LoadID:         load.ID,
		ActorUserID:    broker,
		ActorRole:      string(enums.CallerRoleBroker),
		ClearFixedRate: true,
		ClearDeadline:  true,
	})
	require.NoError(t, err)
	assert.Nil(t, repo.lastUpdates["fixed_rate"])
	assert.Nil(t, repo.lastUpdates["bidding_deadline"])

	// No fields at all is a validation error, not a silent no-op.
	err = svc.UpdateBidding(context.Background(), UpdateBiddingInput{
		LoadID:      load.ID,
		ActorUserID: broker,
		ActorRole:   string(enums.CallerRoleBroker),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// Conditional update losing the race surfaces as a conflict.
	repo.updateOK = false
	disabled := false
	err = svc.UpdateBidding(context.Background(), UpdateBiddingInput{
		LoadID:      load.ID,
		ActorUserID: broker,
		ActorRole:   string(enums.CallerRoleBroker),
		BidEnabled:  &disabled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCompleteRequiresInProgress(t *testing.T) {
	broker := uuid.New()
	load := postedLoad(broker)
	repo := &stubLoadRepo{load: load, setStatusOK: true}
	svc := newTestLoadService(t, repo)

	err := svc.Complete(context.Background(), load.ID, broker, enums.CallerRoleBroker)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	load.Status = enums.LoadStatusInProgress
	err = svc.Complete(context.Background(), load.ID, broker, enums.CallerRoleBroker)
	require.NoError(t, err)
	assert.Equal(t, enums.LoadStatusCompleted, repo.setStatusNext)
}

func TestCancelConflictOnLostSwap(t *testing.T) {
	broker := uuid.New()
	load := postedLoad(broker)
	repo := &stubLoadRepo{load: load, setStatusOK: false}
	svc := newTestLoadService(t, repo)

	err := svc.Cancel(context.Background(), load.ID, broker, enums.CallerRoleBroker)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestAdminBypassesOwnership(t *testing.T) {
	broker := uuid.New()
	load := postedLoad(broker)
	repo := &stubLoadRepo{load: load, setStatusOK: true}
	svc := newTestLoadService(t, repo)

	err := svc.Cancel(context.Background(), load.ID, uuid.New(), enums.CallerRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, enums.LoadStatusCancelled, repo.setStatusNext)
}

func TestGetNotFound(t *testing.T) {
	repo := &stubLoadRepo{}
	svc := newTestLoadService(t, repo)

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
