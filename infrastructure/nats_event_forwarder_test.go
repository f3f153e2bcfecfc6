package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chewbot/events"
	"chewbot/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{subject: subject, data: data})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func TestForward_WrapsEventInEnvelope(t *testing.T) {
	publisher := &fakePublisher{}
	forwarder := NewNATSEventForwarder(publisher, NewEventSubjectMapper())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	forwarder.now = func() time.Time { return fixed }

	event := events.BalanceChangeEvent{
		Username:        "alice",
		OldBalance:      100,
		NewBalance:      60,
		TransactionType: models.TransactionTypeEscrow,
		ChangeAmount:    -40,
	}
	require.NoError(t, forwarder.Forward(context.Background(), event))

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "chewbot.users.balance_changed", publisher.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(publisher.messages[0].data, &envelope))
	assert.Equal(t, "balance_change", envelope.EventType)
	assert.Equal(t, "chewbot", envelope.SourceService)
	assert.True(t, envelope.Timestamp.Equal(fixed))
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.BalanceChangeEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestForward_PublishError(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("no responders")}
	forwarder := NewNATSEventForwarder(publisher, NewEventSubjectMapper())

	err := forwarder.Forward(context.Background(), events.UserCreatedEvent{Username: "bob", InitialBalance: 100})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
}

func TestSubscribe_ForwardsBusEvents(t *testing.T) {
	publisher := &fakePublisher{}
	bus := events.NewBus()
	NewNATSEventForwarder(publisher, NewEventSubjectMapper()).Subscribe(bus)

	bus.Emit(context.Background(), events.ParticipationSettledEvent{Kind: "duel", Channel: "chewchannel"})
	bus.Emit(context.Background(), events.AchievementUnlockedEvent{Username: "alice", Kind: models.AchievementDuelWon, Count: 1})

	require.Eventually(t, func() bool { return publisher.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event events.Event
		want  string
	}{
		{events.UserCreatedEvent{}, "chewbot.users.created"},
		{events.ParticipationStartedEvent{}, "chewbot.participation.started"},
		{events.ParticipationCancelledEvent{}, "chewbot.participation.cancelled"},
		{events.ParticipationSettledEvent{}, "chewbot.participation.settled"},
		{events.AchievementUnlockedEvent{}, "chewbot.achievements.unlocked"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapper.MapEventToSubject(tt.event))
	}

	assert.Len(t, mapper.GetAllSubjects(), len(mapper.EventTypes()))
}
