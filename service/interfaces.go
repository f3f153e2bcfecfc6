package service

import (
	"context"

	"chewbot/events"
	"chewbot/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByUsername retrieves a user by their lowercase Twitch login, nil if unknown
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, username, displayName string, initialBalance int64) (*models.User, error)

	// AdjustPoints adds delta to a user's balance atomically and returns the balance
	// before and after the change. It fails if the balance would become negative.
	AdjustPoints(ctx context.Context, username string, delta int64) (before, after int64, err error)

	// DeductPoints removes amount only if the user holds at least amount.
	// ok is false when the balance was insufficient; nothing changes in that case.
	DeductPoints(ctx context.Context, username string, amount int64) (before, after int64, ok bool, err error)

	// GetTop returns the users with the highest balances
	GetTop(ctx context.Context, limit int) ([]*models.User, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, username string, limit int) ([]*models.BalanceHistory, error)
}

// AchievementRepository defines the interface for the achievement log
type AchievementRepository interface {
	// Record appends an achievement occurrence
	Record(ctx context.Context, achievement *models.Achievement) error

	// Count returns how many times username reached kind
	Count(ctx context.Context, kind models.AchievementKind, username string) (int, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	AchievementRepository() AchievementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
