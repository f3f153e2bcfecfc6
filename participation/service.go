package participation

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"chewbot/events"
	"chewbot/models"
	"chewbot/telemetry"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// timeoutRetryDelay is how long a failed participation timeout waits before running again
const timeoutRetryDelay = 30 * time.Second

// StartResult is either a started Event or the rejection to relay to chat
type StartResult struct {
	Event     Event
	Rejection string
}

// Started reports whether the event was registered
func (r StartResult) Started() bool {
	return r.Event != nil
}

// Service is the registry of running events. It is the only place that
// schedules and cancels event timers. Not safe for concurrent use: every
// call must come from the scheduler's goroutine.
type Service struct {
	env       Env
	scheduler Scheduler

	// active events accept interaction, cooling events only block new starts
	active  map[string][]Event
	cooling map[string][]Event
	timers  map[uuid.UUID]Timer
}

// NewService creates an event registry
func NewService(scheduler Scheduler, env Env) *Service {
	return &Service{
		env:       env,
		scheduler: scheduler,
		active:    make(map[string][]Event),
		cooling:   make(map[string][]Event),
		timers:    make(map[uuid.UUID]Timer),
	}
}

// StartEvent asks every registered event whether ev may start, then starts
// and registers it and schedules its participation timeout.
func (s *Service) StartEvent(ctx context.Context, ev Event, initiator *models.User) (StartResult, error) {
	for _, existing := range s.registered() {
		if allowed, message := existing.CheckForOngoingEvent(ev, initiator); !allowed {
			telemetry.EventRejected(ev.Kind())
			log.WithFields(log.Fields{
				"kind":      ev.Kind(),
				"channel":   ev.Channel(),
				"blockedBy": existing.ID(),
			}).Info("Event start vetoed")
			return StartResult{Rejection: message}, nil
		}
	}

	reply, err := ev.Start(ctx)
	if err != nil {
		return StartResult{}, fmt.Errorf("failed to start %s: %w", ev.Kind(), err)
	}
	if !reply.OK {
		telemetry.EventRejected(ev.Kind())
		return StartResult{Rejection: reply.Message}, nil
	}

	s.active[ev.Kind()] = append(s.active[ev.Kind()], ev)
	s.timers[ev.ID()] = s.scheduler.AfterFunc(ev.ParticipationPeriod(), func(ctx context.Context) {
		s.participationTimeout(ctx, ev)
	})
	telemetry.EventStarted(ev.Kind())

	var initiatorName string
	if initiator != nil {
		initiatorName = initiator.Username
	}
	s.emit(ctx, events.ParticipationStartedEvent{
		EventID:   ev.ID().String(),
		Kind:      ev.Kind(),
		Channel:   ev.Channel(),
		Initiator: initiatorName,
	})

	log.WithFields(log.Fields{
		"eventID":   ev.ID(),
		"kind":      ev.Kind(),
		"channel":   ev.Channel(),
		"initiator": initiatorName,
		"period":    ev.ParticipationPeriod(),
	}).Info("Event started")

	return StartResult{Event: ev}, nil
}

func (s *Service) participationTimeout(ctx context.Context, ev Event) {
	delete(s.timers, ev.ID())
	if !ev.State().Live() {
		return
	}

	if err := ev.ParticipationPeriodEnded(ctx); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"eventID": ev.ID(),
			"kind":    ev.Kind(),
		}).Error("Participation timeout failed, retrying")

		if ev.State().Live() {
			s.timers[ev.ID()] = s.scheduler.AfterFunc(timeoutRetryDelay, func(ctx context.Context) {
				s.participationTimeout(ctx, ev)
			})
		}
	}
}

// Events returns the events that accept interaction, grouped by kind
func (s *Service) Events() []Event {
	var out []Event
	for _, kind := range slices.Sorted(maps.Keys(s.active)) {
		out = append(out, s.active[kind]...)
	}
	return out
}

// GetEvents returns the interactable events of concrete type T in start order
func GetEvents[T Event](s *Service) []T {
	var out []T
	for _, ev := range s.Events() {
		if typed, ok := ev.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// IsRegistered reports whether ev is active or cooling down
func (s *Service) IsRegistered(ev Event) bool {
	return s.find(ev.ID()) != nil
}

// StopEvent cancels ev's timer and removes it immediately
func (s *Service) StopEvent(ev Event) {
	s.stop(ev.ID())
}

// StopEventStartCooldown removes ev from interaction and keeps it blocking
// new starts until its cooldown elapses
func (s *Service) StopEventStartCooldown(ev Event) {
	s.startCooldown(ev.ID())
}

func (s *Service) registered() []Event {
	out := s.Events()
	for _, kind := range slices.Sorted(maps.Keys(s.cooling)) {
		out = append(out, s.cooling[kind]...)
	}
	return out
}

func (s *Service) find(id uuid.UUID) Event {
	for _, ev := range s.registered() {
		if ev.ID() == id {
			return ev
		}
	}
	return nil
}

func (s *Service) cancelTimer(id uuid.UUID) {
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}

func removeEvent(registry map[string][]Event, id uuid.UUID) bool {
	for kind, list := range registry {
		for i, ev := range list {
			if ev.ID() != id {
				continue
			}
			list = slices.Delete(list, i, i+1)
			if len(list) == 0 {
				delete(registry, kind)
			} else {
				registry[kind] = list
			}
			return true
		}
	}
	return false
}

func (s *Service) stop(id uuid.UUID) {
	ev := s.find(id)
	if ev == nil {
		return
	}

	s.cancelTimer(id)
	removeEvent(s.active, id)
	removeEvent(s.cooling, id)
	telemetry.EventDeregistered(ev.Kind())
}

func (s *Service) startCooldown(id uuid.UUID) {
	ev := s.find(id)
	if ev == nil || !removeEvent(s.active, id) {
		return
	}

	s.cancelTimer(id)
	s.cooling[ev.Kind()] = append(s.cooling[ev.Kind()], ev)
	s.timers[id] = s.scheduler.AfterFunc(ev.CooldownPeriod(), func(ctx context.Context) {
		delete(s.timers, id)
		if removeEvent(s.cooling, id) {
			telemetry.EventDeregistered(ev.Kind())
		}
		if err := ev.OnCooldownComplete(ctx); err != nil {
			log.WithError(err).WithField("eventID", id).Error("Cooldown completion failed")
		}
	})
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.env.Publisher != nil {
		s.env.Publisher.Emit(ctx, event)
	}
}
