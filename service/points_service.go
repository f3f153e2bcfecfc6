package service

import (
	"context"
	"fmt"
	"strings"

	"chewbot/models"

	log "github.com/sirupsen/logrus"
)

// PointsService is the user directory of the bot. Every balance mutation is a
// single atomic statement plus a balance history row in one transaction.
type PointsService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewPointsService creates a new points service
func NewPointsService(uowFactory UnitOfWorkFactory, startingBalance int64) *PointsService {
	return &PointsService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// NormalizeUsername turns "@Someone" into the lowercase login used as identity
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// GetUser looks up a user by username. It returns nil when the user is unknown.
func (s *PointsService) GetUser(ctx context.Context, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetOrCreateUser retrieves an existing user or creates a new one with the starting balance
func (s *PointsService) GetOrCreateUser(ctx context.Context, username, displayName string) (*models.User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	// The unique constraint on username prevents duplicates
	user, err = uow.UserRepository().Create(ctx, username, displayName, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	history := &models.BalanceHistory{
		Username:        username,
		BalanceBefore:   0,
		BalanceAfter:    s.startingBalance,
		ChangeAmount:    s.startingBalance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"display_name": displayName,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"username": username,
		"balance":  s.startingBalance,
	}).Info("Created new user")

	return user, nil
}

// ChangeUserPoints adds delta (which may be negative) to the user's balance
func (s *PointsService) ChangeUserPoints(ctx context.Context, user *models.User, delta int64, reason models.TransactionType) error {
	return s.ChangeUsersPoints(ctx, []*models.User{user}, delta, reason)
}

// ChangeUsersPoints adds the same delta to every user in one transaction
func (s *PointsService) ChangeUsersPoints(ctx context.Context, users []*models.User, delta int64, reason models.TransactionType) error {
	if delta == 0 || len(users) == 0 {
		return nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	balances := make([]int64, len(users))
	for i, user := range users {
		before, after, err := uow.UserRepository().AdjustPoints(ctx, user.Username, delta)
		if err != nil {
			return fmt.Errorf("failed to change points for %s: %w", user.Username, err)
		}

		history := &models.BalanceHistory{
			Username:        user.Username,
			BalanceBefore:   before,
			BalanceAfter:    after,
			ChangeAmount:    delta,
			TransactionType: reason,
			TransactionMetadata: map[string]any{
				"batch_size": len(users),
			},
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return fmt.Errorf("failed to record balance change for %s: %w", user.Username, err)
		}
		balances[i] = after
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for i, user := range users {
		user.Points = balances[i]
	}
	return nil
}

// TryDeductPoints escrows amount from the user if, and only if, the user holds
// at least amount at the moment of the update. Check and deduction are one
// statement, so a concurrent spend cannot slip between them.
func (s *PointsService) TryDeductPoints(ctx context.Context, user *models.User, amount int64, reason models.TransactionType) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("amount must not be negative")
	}
	if amount == 0 {
		return true, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	before, after, ok, err := uow.UserRepository().DeductPoints(ctx, user.Username, amount)
	if err != nil {
		return false, fmt.Errorf("failed to deduct points for %s: %w", user.Username, err)
	}
	if !ok {
		log.WithFields(log.Fields{
			"username": user.Username,
			"balance":  before,
			"amount":   amount,
		}).Info("Insufficient chews for deduction")
		return false, nil
	}

	history := &models.BalanceHistory{
		Username:        user.Username,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    -amount,
		TransactionType: reason,
		TransactionMetadata: map[string]any{
			"escrow": amount,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return false, fmt.Errorf("failed to record escrow for %s: %w", user.Username, err)
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	user.Points = after
	return true, nil
}

// GetLeaderboard returns the richest users
func (s *PointsService) GetLeaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetTop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return users, nil
}
