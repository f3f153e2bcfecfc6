package events

import (
	"context"
	"sync"

	"chewbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange          EventType = "balance_change"
	EventTypeUserCreated            EventType = "user_created"
	EventTypeParticipationStarted   EventType = "participation_started"
	EventTypeParticipationCancelled EventType = "participation_cancelled"
	EventTypeParticipationSettled   EventType = "participation_settled"
	EventTypeAchievementUnlocked    EventType = "achievement_unlocked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	Username        string                 `json:"username"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	Username       string `json:"username"`
	InitialBalance int64  `json:"initial_balance"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// ParticipationStartedEvent is emitted when a participation event opens
type ParticipationStartedEvent struct {
	EventID   string `json:"event_id"`
	Kind      string `json:"kind"`
	Channel   string `json:"channel"`
	Initiator string `json:"initiator"`
}

func (e ParticipationStartedEvent) Type() EventType {
	return EventTypeParticipationStarted
}

// ParticipationCancelledEvent is emitted when a participation event ends with a refund
type ParticipationCancelledEvent struct {
	EventID  string   `json:"event_id"`
	Kind     string   `json:"kind"`
	Channel  string   `json:"channel"`
	Refunded []string `json:"refunded"`
	Reason   string   `json:"reason"`
}

func (e ParticipationCancelledEvent) Type() EventType {
	return EventTypeParticipationCancelled
}

// ParticipationSettledEvent is emitted after the points of an event were redistributed
type ParticipationSettledEvent struct {
	EventID string           `json:"event_id"`
	Kind    string           `json:"kind"`
	Channel string           `json:"channel"`
	Winners []string         `json:"winners"`
	Losers  []string         `json:"losers"`
	Payouts map[string]int64 `json:"payouts"`
	Summary string           `json:"summary"`
}

func (e ParticipationSettledEvent) Type() EventType {
	return EventTypeParticipationSettled
}

// AchievementUnlockedEvent is emitted when a user reaches an achievement milestone
type AchievementUnlockedEvent struct {
	Username string                 `json:"username"`
	Channel  string                 `json:"channel"`
	Kind     models.AchievementKind `json:"kind"`
	Count    int                    `json:"count"`
}

func (e AchievementUnlockedEvent) Type() EventType {
	return EventTypeAchievementUnlocked
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every given event type
func (b *Bus) SubscribeAll(handler Handler, eventTypes ...EventType) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so the engine loop never blocks on them
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	if b.real == nil {
		b.pending = nil
		return nil
	}

	// Events outlive the transaction context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
