package repository

import (
	"context"
	"errors"
	"fmt"

	"chewbot/database"
	"chewbot/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, username, display_name, points, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Points,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by login. It returns nil when no user exists.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, username, displayName string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (username, display_name, points)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, username, displayName, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return user, nil
}

// AdjustPoints adds delta to the balance in a single statement
func (r *UserRepository) AdjustPoints(ctx context.Context, username string, delta int64) (int64, int64, error) {
	query := `
		UPDATE users
		SET points = points + $2, updated_at = NOW()
		WHERE username = $1
		RETURNING points - $2, points
	`

	var before, after int64
	err := r.q.QueryRow(ctx, query, username, delta).Scan(&before, &after)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("user %s not found", username)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to adjust points for %s: %w", username, err)
	}
	return before, after, nil
}

// DeductPoints subtracts amount only when the current balance covers it.
// A miss is reported with ok=false and the unchanged balance.
func (r *UserRepository) DeductPoints(ctx context.Context, username string, amount int64) (int64, int64, bool, error) {
	query := `
		UPDATE users
		SET points = points - $2, updated_at = NOW()
		WHERE username = $1 AND points >= $2
		RETURNING points + $2, points
	`

	var before, after int64
	err := r.q.QueryRow(ctx, query, username, amount).Scan(&before, &after)
	if err == nil {
		return before, after, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, false, fmt.Errorf("failed to deduct points for %s: %w", username, err)
	}

	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return 0, 0, false, err
	}
	if user == nil {
		return 0, 0, false, fmt.Errorf("user %s not found", username)
	}
	return user.Points, user.Points, false, nil
}

// GetTop returns users ordered by balance
func (r *UserRepository) GetTop(ctx context.Context, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY points DESC, username ASC LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
