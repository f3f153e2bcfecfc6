package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"chewbot/events"
	"chewbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingAnnouncer struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAnnouncer) SendMessage(_ context.Context, channel, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, channel+": "+text)
	return nil
}

func (a *recordingAnnouncer) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type keyTranslator struct{}

func (keyTranslator) T(key string, data map[string]any) string {
	return key
}

func TestAchievementService_Publish_Milestone(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	m.achieve.On("Record", ctx, mock.MatchedBy(func(a *models.Achievement) bool {
		return a.Kind == models.AchievementDuelWon && a.Username == "alice" && a.Channel == "chewbot"
	})).Return(nil)
	m.achieve.On("Count", ctx, models.AchievementDuelWon, "alice").Return(10, nil)
	m.publisher.On("Publish", events.AchievementUnlockedEvent{
		Username: "alice",
		Channel:  "chewbot",
		Kind:     models.AchievementDuelWon,
		Count:    10,
	}).Return()
	m.uow.On("Commit").Return(nil)

	service := NewAchievementService(m.factory, nil, keyTranslator{})
	count, err := service.Publish(ctx, models.AchievementDuelWon, "alice", "chewbot")

	require.NoError(t, err)
	assert.Equal(t, 10, count)
	m.assert(t)
	m.achieve.AssertExpectations(t)
}

func TestAchievementService_Publish_BetweenMilestones(t *testing.T) {
	ctx := context.Background()
	m := newPointsMocks(ctx)

	m.achieve.On("Record", ctx, mock.Anything).Return(nil)
	m.achieve.On("Count", ctx, models.AchievementArenaWon, "bob").Return(7, nil)
	m.uow.On("Commit").Return(nil)

	service := NewAchievementService(m.factory, nil, keyTranslator{})
	count, err := service.Publish(ctx, models.AchievementArenaWon, "bob", "chewbot")

	require.NoError(t, err)
	assert.Equal(t, 7, count)
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestAchievementService_AnnouncesUnlocks(t *testing.T) {
	announcer := &recordingAnnouncer{}
	service := NewAchievementService(new(MockUnitOfWorkFactory), announcer, keyTranslator{})

	bus := events.NewBus()
	service.Subscribe(bus)

	bus.Emit(context.Background(), events.AchievementUnlockedEvent{
		Username: "alice",
		Channel:  "chewbot",
		Kind:     models.AchievementBankheistSurvived,
		Count:    1,
	})

	assert.Eventually(t, func() bool {
		return len(announcer.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "chewbot: achievement_bankheist_survived", announcer.snapshot()[0])
}

func TestAchievementForKind(t *testing.T) {
	kind, ok := achievementForKind("duel")
	assert.True(t, ok)
	assert.Equal(t, models.AchievementDuelWon, kind)

	_, ok = achievementForKind("raffle")
	assert.False(t, ok)
}
