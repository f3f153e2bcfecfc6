package infrastructure

import (
	"fmt"

	"chewbot/events"
)

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChange:          "chewbot.users.balance_changed",
	events.EventTypeUserCreated:            "chewbot.users.created",
	events.EventTypeParticipationStarted:   "chewbot.participation.started",
	events.EventTypeParticipationCancelled: "chewbot.participation.cancelled",
	events.EventTypeParticipationSettled:   "chewbot.participation.settled",
	events.EventTypeAchievementUnlocked:    "chewbot.achievements.unlocked",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("chewbot.unknown.%s", event.Type())
}

// EventTypes returns every event type that is forwarded
func (m *EventSubjectMapper) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeUserCreated,
		events.EventTypeParticipationStarted,
		events.EventTypeParticipationCancelled,
		events.EventTypeParticipationSettled,
		events.EventTypeAchievementUnlocked,
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(eventSubjects))
	for _, eventType := range m.EventTypes() {
		subjects = append(subjects, eventSubjects[eventType])
	}
	return subjects
}
