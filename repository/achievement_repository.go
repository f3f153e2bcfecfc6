package repository

import (
	"context"
	"fmt"

	"chewbot/database"
	"chewbot/models"
)

// AchievementRepository implements the AchievementRepository interface
type AchievementRepository struct {
	q queryable
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *database.DB) *AchievementRepository {
	return &AchievementRepository{q: db.Pool}
}

func newAchievementRepositoryWithTx(tx queryable) *AchievementRepository {
	return &AchievementRepository{q: tx}
}

// Record appends an achievement occurrence
func (r *AchievementRepository) Record(ctx context.Context, achievement *models.Achievement) error {
	query := `
		INSERT INTO achievements (kind, username, channel)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, achievement.Kind, achievement.Username, achievement.Channel).
		Scan(&achievement.ID, &achievement.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record achievement: %w", err)
	}
	return nil
}

// Count returns how many times username reached kind
func (r *AchievementRepository) Count(ctx context.Context, kind models.AchievementKind, username string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM achievements WHERE kind = $1 AND username = $2`,
		kind, username,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}
	return count, nil
}
