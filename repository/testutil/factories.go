package testutil

import (
	"time"

	"chewbot/models"
)

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(username string, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		Username:        username,
		BalanceBefore:   1000,
		BalanceAfter:    900,
		ChangeAmount:    -100,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestBalanceHistoryWithAmounts creates a test balance history with specific amounts
func CreateTestBalanceHistoryWithAmounts(username string, before, after, change int64, transactionType models.TransactionType) *models.BalanceHistory {
	history := CreateTestBalanceHistory(username, transactionType)
	history.BalanceBefore = before
	history.BalanceAfter = after
	history.ChangeAmount = change
	return history
}

// CreateTestAchievement creates an achievement occurrence for a channel
func CreateTestAchievement(kind models.AchievementKind, username string) *models.Achievement {
	return &models.Achievement{
		Kind:     kind,
		Username: username,
		Channel:  "testchannel",
	}
}
