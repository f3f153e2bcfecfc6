package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"chewbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversToBus(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			received <- balanceEvent
		}
	})

	sent := BalanceChangeEvent{
		Username:        "chewer",
		OldBalance:      1000,
		NewBalance:      1200,
		TransactionType: models.TransactionTypeDuelWin,
		ChangeAmount:    200,
	}
	transactionalBus.Publish(sent)

	// Nothing is delivered before the flush
	select {
	case <-received:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case got := <-received:
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not received within timeout")
	}
}

func TestTransactionalBus_FlushAfterCancelledContext(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	errs := make(chan error, 1)
	mainBus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		errs <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(UserCreatedEvent{Username: "newbie", InitialBalance: 500})
	cancel()
	require.NoError(t, transactionalBus.Flush(ctx))

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not received within timeout")
	}
}

func TestTransactionalBus_Discard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan bool, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		received <- true
	})

	transactionalBus.Publish(BalanceChangeEvent{Username: "chewer", ChangeAmount: 10})
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case <-received:
		t.Fatal("event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SubscribeAllAndPanicRecovery(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	seen := map[EventType]int{}

	bus.Subscribe(EventTypeParticipationSettled, func(ctx context.Context, event Event) {
		panic("handler exploded")
	})
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()]++
		mu.Unlock()
	}, EventTypeParticipationSettled, EventTypeParticipationCancelled)

	bus.Emit(context.Background(), ParticipationSettledEvent{Kind: "duel", Channel: "chews"})
	bus.Emit(context.Background(), ParticipationCancelledEvent{Kind: "duel", Channel: "chews"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers were not called")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[EventTypeParticipationSettled])
	assert.Equal(t, 1, seen[EventTypeParticipationCancelled])
}
