package service

import (
	"context"
	"errors"
	"testing"

	"chewbot/events"
	"chewbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type pointsMocks struct {
	factory   *MockUnitOfWorkFactory
	uow       *MockUnitOfWork
	users     *MockUserRepository
	history   *MockBalanceHistoryRepository
	achieve   *MockAchievementRepository
	publisher *MockEventPublisher
}

func newPointsMocks(ctx context.Context) *pointsMocks {
	m := &pointsMocks{
		factory:   new(MockUnitOfWorkFactory),
		uow:       new(MockUnitOfWork),
		users:     new(MockUserRepository),
		history:   new(MockBalanceHistoryRepository),
		achieve:   new(MockAchievementRepository),
		publisher: new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.users, m.history, m.achieve, m.publisher)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func (m *pointsMocks) assert(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.history.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("@Alice"))
	assert.Equal(t, "bob", NormalizeUsername("  bob "))
	assert.Equal(t, "", NormalizeUsername("@"))
}

func TestPointsService_GetOrCreateUser_Existing(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	existing := &models.User{ID: 1, Username: "alice", Points: 500}
	m.users.On("GetByUsername", ctx, "alice").Return(existing, nil)

	service := NewPointsService(m.factory, 1000)
	user, err := service.GetOrCreateUser(ctx, "@Alice", "Alice")

	require.NoError(t, err)
	assert.Same(t, existing, user)
	m.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assert(t)
}

func TestPointsService_GetOrCreateUser_New(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	created := &models.User{ID: 2, Username: "bob", DisplayName: "Bob", Points: 1000}
	m.users.On("GetByUsername", ctx, "bob").Return(nil, nil)
	m.users.On("Create", ctx, "bob", "Bob", int64(1000)).Return(created, nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.Username == "bob" &&
			h.BalanceBefore == 0 &&
			h.BalanceAfter == 1000 &&
			h.TransactionType == models.TransactionTypeInitial
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.publisher.On("Publish", events.UserCreatedEvent{Username: "bob", InitialBalance: 1000}).Return()
	m.uow.On("Commit").Return(nil)

	service := NewPointsService(m.factory, 1000)
	user, err := service.GetOrCreateUser(ctx, "Bob", "Bob")

	require.NoError(t, err)
	assert.Equal(t, int64(1000), user.Points)
	m.assert(t)
}

func TestPointsService_GetOrCreateUser_EmptyName(t *testing.T) {
	service := NewPointsService(new(MockUnitOfWorkFactory), 1000)
	_, err := service.GetOrCreateUser(context.Background(), "@", "")
	assert.Error(t, err)
}

func TestPointsService_ChangeUsersPoints(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	alice := &models.User{Username: "alice", Points: 100}
	bob := &models.User{Username: "bob", Points: 40}

	m.users.On("AdjustPoints", ctx, "alice", int64(50)).Return(int64(100), int64(150), nil)
	m.users.On("AdjustPoints", ctx, "bob", int64(50)).Return(int64(40), int64(90), nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == 50 && h.TransactionType == models.TransactionTypeRefund
	})).Return(nil).Twice()
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return().Twice()
	m.uow.On("Commit").Return(nil)

	service := NewPointsService(m.factory, 1000)
	err := service.ChangeUsersPoints(ctx, []*models.User{alice, bob}, 50, models.TransactionTypeRefund)

	require.NoError(t, err)
	assert.Equal(t, int64(150), alice.Points)
	assert.Equal(t, int64(90), bob.Points)
	m.assert(t)
}

func TestPointsService_ChangeUsersPoints_NoopOnZeroDelta(t *testing.T) {
	factory := new(MockUnitOfWorkFactory)
	service := NewPointsService(factory, 1000)

	err := service.ChangeUsersPoints(context.Background(), []*models.User{{Username: "alice"}}, 0, models.TransactionTypeRefund)

	require.NoError(t, err)
	factory.AssertNotCalled(t, "Create")
}

func TestPointsService_ChangeUsersPoints_FailureKeepsLocalBalances(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	alice := &models.User{Username: "alice", Points: 100}
	bob := &models.User{Username: "bob", Points: 10}

	m.users.On("AdjustPoints", ctx, "alice", int64(-20)).Return(int64(100), int64(80), nil)
	m.users.On("AdjustPoints", ctx, "bob", int64(-20)).Return(int64(0), int64(0), errors.New("points would become negative"))
	m.history.On("Record", ctx, mock.Anything).Return(nil).Once()
	m.publisher.On("Publish", mock.Anything).Return().Once()

	service := NewPointsService(m.factory, 1000)
	err := service.ChangeUsersPoints(ctx, []*models.User{alice, bob}, -20, models.TransactionTypeAdmin)

	assert.Error(t, err)
	assert.Equal(t, int64(100), alice.Points)
	assert.Equal(t, int64(10), bob.Points)
	m.uow.AssertNotCalled(t, "Commit")
	m.assert(t)
}

func TestPointsService_TryDeductPoints_Success(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	user := &models.User{Username: "alice", Points: 100}
	m.users.On("DeductPoints", ctx, "alice", int64(30)).Return(int64(100), int64(70), true, nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == -30 &&
			h.BalanceAfter == 70 &&
			h.TransactionType == models.TransactionTypeEscrow
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.uow.On("Commit").Return(nil)

	service := NewPointsService(m.factory, 1000)
	ok, err := service.TryDeductPoints(ctx, user, 30, models.TransactionTypeEscrow)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(70), user.Points)
	m.assert(t)
}

func TestPointsService_TryDeductPoints_Insufficient(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	user := &models.User{Username: "alice", Points: 20}
	m.users.On("DeductPoints", ctx, "alice", int64(30)).Return(int64(20), int64(20), false, nil)

	service := NewPointsService(m.factory, 1000)
	ok, err := service.TryDeductPoints(ctx, user, 30, models.TransactionTypeEscrow)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(20), user.Points)
	m.history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit")
	m.assert(t)
}

func TestPointsService_TryDeductPoints_Bounds(t *testing.T) {
	factory := new(MockUnitOfWorkFactory)
	service := NewPointsService(factory, 1000)
	user := &models.User{Username: "alice", Points: 20}

	ok, err := service.TryDeductPoints(context.Background(), user, 0, models.TransactionTypeEscrow)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = service.TryDeductPoints(context.Background(), user, -5, models.TransactionTypeEscrow)
	assert.Error(t, err)

	factory.AssertNotCalled(t, "Create")
}
