package service

import (
	"context"
	"fmt"
	"slices"

	"chewbot/events"
	"chewbot/models"

	log "github.com/sirupsen/logrus"
)

// Milestones are the counts at which an achievement is announced
var Milestones = []int{1, 10, 50, 100}

// Announcer sends a message to a chat channel
type Announcer interface {
	SendMessage(ctx context.Context, channel, text string) error
}

// Translator renders a catalog message
type Translator interface {
	T(key string, data map[string]any) string
}

// AchievementService logs achievement occurrences and counts them
type AchievementService struct {
	uowFactory UnitOfWorkFactory
	announcer  Announcer
	translator Translator
}

// NewAchievementService creates a new achievement service
func NewAchievementService(uowFactory UnitOfWorkFactory, announcer Announcer, translator Translator) *AchievementService {
	return &AchievementService{
		uowFactory: uowFactory,
		announcer:  announcer,
		translator: translator,
	}
}

// Publish records one occurrence of kind for username and returns the new count
func (s *AchievementService) Publish(ctx context.Context, kind models.AchievementKind, username, channel string) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	achievement := &models.Achievement{
		Kind:     kind,
		Username: username,
		Channel:  channel,
	}
	if err := uow.AchievementRepository().Record(ctx, achievement); err != nil {
		return 0, fmt.Errorf("failed to record achievement: %w", err)
	}

	count, err := uow.AchievementRepository().Count(ctx, kind, username)
	if err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}

	if slices.Contains(Milestones, count) {
		uow.EventBus().Publish(events.AchievementUnlockedEvent{
			Username: username,
			Channel:  channel,
			Kind:     kind,
			Count:    count,
		})
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return count, nil
}

// Count returns how many times username reached kind
func (s *AchievementService) Count(ctx context.Context, kind models.AchievementKind, username string) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	count, err := uow.AchievementRepository().Count(ctx, kind, username)
	if err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}
	return count, nil
}

// Subscribe wires the service to the event bus
func (s *AchievementService) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeParticipationSettled, s.handleSettled)
	bus.Subscribe(events.EventTypeAchievementUnlocked, s.handleUnlocked)
}

func achievementForKind(kind string) (models.AchievementKind, bool) {
	switch kind {
	case "duel":
		return models.AchievementDuelWon, true
	case "bankheist":
		return models.AchievementBankheistSurvived, true
	case "arena":
		return models.AchievementArenaWon, true
	}
	return "", false
}

func (s *AchievementService) handleSettled(ctx context.Context, event events.Event) {
	settled, ok := event.(events.ParticipationSettledEvent)
	if !ok {
		return
	}
	kind, ok := achievementForKind(settled.Kind)
	if !ok {
		return
	}

	for _, winner := range settled.Winners {
		if _, err := s.Publish(ctx, kind, winner, settled.Channel); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"kind":     kind,
				"username": winner,
			}).Error("Failed to publish achievement")
		}
	}
}

func (s *AchievementService) handleUnlocked(ctx context.Context, event events.Event) {
	unlocked, ok := event.(events.AchievementUnlockedEvent)
	if !ok || s.announcer == nil || unlocked.Channel == "" {
		return
	}

	text := s.translator.T("achievement_"+string(unlocked.Kind), map[string]any{
		"User":  unlocked.Username,
		"Count": unlocked.Count,
	})
	if err := s.announcer.SendMessage(ctx, unlocked.Channel, text); err != nil {
		log.WithError(err).WithField("channel", unlocked.Channel).Error("Failed to announce achievement")
	}
}
