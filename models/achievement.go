package models

import "time"

// AchievementKind names a countable thing a user did
type AchievementKind string

const (
	AchievementDuelWon           AchievementKind = "duel_won"
	AchievementBankheistSurvived AchievementKind = "bankheist_survived"
	AchievementArenaWon          AchievementKind = "arena_won"
)

// Achievement is one logged occurrence of an achievement kind for a user
type Achievement struct {
	ID        int64           `db:"id"`
	Kind      AchievementKind `db:"kind"`
	Username  string          `db:"username"`
	Channel   string          `db:"channel"`
	CreatedAt time.Time       `db:"created_at"`
}
