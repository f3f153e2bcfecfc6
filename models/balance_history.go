package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial         TransactionType = "initial"
	TransactionTypeEscrow          TransactionType = "escrow"
	TransactionTypeRefund          TransactionType = "refund"
	TransactionTypeDuelWin         TransactionType = "duel_win"
	TransactionTypeDuelTie         TransactionType = "duel_tie"
	TransactionTypeBankheistPayout TransactionType = "bankheist_payout"
	TransactionTypeArenaWin        TransactionType = "arena_win"
	TransactionTypeAdmin           TransactionType = "admin"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	Username            string          `db:"username"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	CreatedAt           time.Time       `db:"created_at"`
}
