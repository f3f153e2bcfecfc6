package participation

import (
	"context"
	"time"

	"chewbot/events"
	"chewbot/models"
)

// Chat is the chat transport the engine talks through
type Chat interface {
	SendMessage(ctx context.Context, channel, text string) error
	SendWhisper(ctx context.Context, username, text string) error
	Timeout(ctx context.Context, channel, username string, seconds int, reason string) error
}

// UserDirectory looks users up and mutates their balances atomically per call
type UserDirectory interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	ChangeUserPoints(ctx context.Context, user *models.User, delta int64, reason models.TransactionType) error
	ChangeUsersPoints(ctx context.Context, users []*models.User, delta int64, reason models.TransactionType) error
	// TryDeductPoints deducts amount only if the user holds it, in one step
	TryDeductPoints(ctx context.Context, user *models.User, amount int64, reason models.TransactionType) (bool, error)
}

// Translator renders a catalog message
type Translator interface {
	T(key string, data map[string]any) string
}

// Publisher receives domain events raised by the engine
type Publisher interface {
	Emit(ctx context.Context, event events.Event)
}

// Random is the source of chance for bankheist and arena outcomes
type Random interface {
	IntN(n int) int
	Float64() float64
}

// Timer is a pending one-shot callback
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped it.
	Stop() bool
}

// Scheduler runs fn once after d. Callbacks must run on the same goroutine as
// every other engine call.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func(ctx context.Context)) Timer
}

// Env bundles the collaborators shared by every event of a Service
type Env struct {
	Chat       Chat
	Users      UserDirectory
	Translator Translator
	Publisher  Publisher
	Random     Random
}
