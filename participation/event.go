package participation

import (
	"context"
	"fmt"
	"time"

	"chewbot/events"
	"chewbot/models"
	"chewbot/telemetry"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// State is the lifecycle phase of an event
type State int

const (
	// StateOpen solicits participants
	StateOpen State = iota
	// StateBoardingCompleted has a locked roster and waits for the completion condition
	StateBoardingCompleted
	// StateCooldown is settled and blocks new events of its kind
	StateCooldown
	// StateEnded is terminal
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateBoardingCompleted:
		return "boarding_completed"
	case StateCooldown:
		return "cooldown"
	case StateEnded:
		return "ended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Live reports whether participants may still interact with the event
func (s State) Live() bool {
	return s == StateOpen || s == StateBoardingCompleted
}

// Reply is the outcome of a user action. A rejected action carries the
// message to relay to chat and changes nothing.
type Reply struct {
	OK      bool
	Message string
}

func replyOK() Reply { return Reply{OK: true} }

func replyReject(message string) Reply { return Reply{Message: message} }

// Event is a time-boxed multi-participant game registered with a Service
type Event interface {
	ID() uuid.UUID
	Kind() string
	Channel() string
	State() State
	Initiator() *models.User
	ParticipationPeriod() time.Duration
	CooldownPeriod() time.Duration

	// CheckForOngoingEvent is asked on every registered event before candidate starts
	CheckForOngoingEvent(candidate Event, initiator *models.User) (bool, string)

	// Start escrows the initiator's chews and announces the event
	Start(ctx context.Context) (Reply, error)

	// ParticipationPeriodEnded is a no-op unless the event is still live
	ParticipationPeriodEnded(ctx context.Context) error

	OnCooldownComplete(ctx context.Context) error
}

// Base carries the roster, state and escrow bookkeeping shared by all events
type Base[P participantLike] struct {
	svc                 *Service
	id                  uuid.UUID
	kind                string
	channel             string
	state               State
	participants        []P
	participationPeriod time.Duration
	cooldownPeriod      time.Duration

	// boardingSize is the roster size at which boarding completes,
	// maxParticipants caps the roster (0 means unlimited)
	boardingSize    int
	maxParticipants int
}

func newBase[P participantLike](svc *Service, kind, channel string, participation, cooldown time.Duration, boardingSize, maxParticipants int) Base[P] {
	return Base[P]{
		svc:                 svc,
		id:                  uuid.New(),
		kind:                kind,
		channel:             channel,
		state:               StateOpen,
		participationPeriod: participation,
		cooldownPeriod:      cooldown,
		boardingSize:        boardingSize,
		maxParticipants:     maxParticipants,
	}
}

func (b *Base[P]) ID() uuid.UUID                      { return b.id }
func (b *Base[P]) Kind() string                       { return b.kind }
func (b *Base[P]) Channel() string                    { return b.channel }
func (b *Base[P]) State() State                       { return b.state }
func (b *Base[P]) ParticipationPeriod() time.Duration { return b.participationPeriod }
func (b *Base[P]) CooldownPeriod() time.Duration      { return b.cooldownPeriod }

// Participants returns the roster in arrival order
func (b *Base[P]) Participants() []P {
	out := make([]P, len(b.participants))
	copy(out, b.participants)
	return out
}

// Initiator is the first participant
func (b *Base[P]) Initiator() *models.User {
	if len(b.participants) == 0 {
		return nil
	}
	return b.participants[0].base().User
}

// Participant finds a participant by username
func (b *Base[P]) Participant(username string) (P, bool) {
	for _, p := range b.participants {
		if p.base().Username() == username {
			return p, true
		}
	}
	var zero P
	return zero, false
}

// HasParticipant reports whether username already joined
func (b *Base[P]) HasParticipant(username string) bool {
	_, found := b.Participant(username)
	return found
}

// AddParticipant appends p unless the user already joined or the roster is full.
// Reaching the boarding size moves an open event to BoardingCompleted.
func (b *Base[P]) AddParticipant(p P) bool {
	if b.HasParticipant(p.base().Username()) {
		return false
	}
	if b.maxParticipants > 0 && len(b.participants) >= b.maxParticipants {
		return false
	}

	b.participants = append(b.participants, p)
	if b.state == StateOpen && b.boardingSize > 0 && len(b.participants) >= b.boardingSize {
		b.state = StateBoardingCompleted
	}
	return true
}

// CheckForOngoingEvent vetoes a second event of the same kind in the same channel
func (b *Base[P]) CheckForOngoingEvent(candidate Event, _ *models.User) (bool, string) {
	if candidate.Kind() != b.kind || candidate.Channel() != b.channel {
		return true, ""
	}
	if b.state == StateCooldown {
		return false, b.t("event_cooldown", map[string]any{"Kind": b.kind})
	}
	return false, b.t("event_already_running", map[string]any{"Kind": b.kind})
}

// OnCooldownComplete ends the event and announces that the kind is available again
func (b *Base[P]) OnCooldownComplete(ctx context.Context) error {
	b.state = StateEnded
	b.say(ctx, b.kind+"_available", nil)
	return nil
}

func (b *Base[P]) t(key string, data map[string]any) string {
	return b.svc.env.Translator.T(key, data)
}

func (b *Base[P]) logger() *log.Entry {
	return log.WithFields(log.Fields{
		"eventID": b.id,
		"kind":    b.kind,
		"channel": b.channel,
		"state":   b.state,
	})
}

// say sends a channel message. Chat failures are logged, they never abort a transition.
func (b *Base[P]) say(ctx context.Context, key string, data map[string]any) {
	if err := b.svc.env.Chat.SendMessage(ctx, b.channel, b.t(key, data)); err != nil {
		b.logger().WithError(err).WithField("key", key).Error("Failed to send chat message")
	}
}

func (b *Base[P]) whisper(ctx context.Context, username, key string, data map[string]any) {
	if err := b.svc.env.Chat.SendWhisper(ctx, username, b.t(key, data)); err != nil {
		b.logger().WithError(err).WithFields(log.Fields{
			"key":      key,
			"username": username,
		}).Error("Failed to send whisper")
	}
}

// escrow takes amount from user if, and only if, they hold it
func (b *Base[P]) escrow(ctx context.Context, user *models.User, amount int64) (bool, error) {
	ok, err := b.svc.env.Users.TryDeductPoints(ctx, user, amount, models.TransactionTypeEscrow)
	if err != nil {
		return false, fmt.Errorf("failed to escrow chews for %s: %w", user.Username, err)
	}
	if ok {
		telemetry.AddChews(b.kind, "escrow", amount)
	}
	return ok, nil
}

// pay credits amount to every user in one balance call
func (b *Base[P]) pay(ctx context.Context, users []*models.User, amount int64, reason models.TransactionType) error {
	if err := b.svc.env.Users.ChangeUsersPoints(ctx, users, amount, reason); err != nil {
		return fmt.Errorf("failed to pay %d chews: %w", amount, err)
	}
	telemetry.AddChews(b.kind, "payout", amount*int64(len(users)))
	return nil
}

// refundAll returns every accepted participant's escrow. Participants with
// equal wagers are refunded in one balance call.
func (b *Base[P]) refundAll(ctx context.Context) ([]string, error) {
	var wagers []int64
	groups := make(map[int64][]*Participant)
	for _, p := range b.participants {
		part := p.base()
		if !part.Accepted || part.Wager == 0 {
			continue
		}
		if _, seen := groups[part.Wager]; !seen {
			wagers = append(wagers, part.Wager)
		}
		groups[part.Wager] = append(groups[part.Wager], part)
	}

	var refunded []string
	for _, wager := range wagers {
		users := make([]*models.User, 0, len(groups[wager]))
		for _, part := range groups[wager] {
			users = append(users, part.User)
		}
		if err := b.svc.env.Users.ChangeUsersPoints(ctx, users, wager, models.TransactionTypeRefund); err != nil {
			return refunded, fmt.Errorf("failed to refund %d chews: %w", wager, err)
		}
		for _, part := range groups[wager] {
			part.Accepted = false
			refunded = append(refunded, part.Username())
		}
		telemetry.AddChews(b.kind, "refund", wager*int64(len(users)))
	}
	return refunded, nil
}

// cancel refunds all escrow, ends the event and deregisters it without cooldown
func (b *Base[P]) cancel(ctx context.Context, reason, key string, data map[string]any) error {
	refunded, err := b.refundAll(ctx)
	if err != nil {
		return err
	}

	b.state = StateEnded
	b.say(ctx, key, data)
	b.svc.stop(b.id)
	telemetry.EventCancelled(b.kind)

	b.svc.emit(ctx, events.ParticipationCancelledEvent{
		EventID:  b.id.String(),
		Kind:     b.kind,
		Channel:  b.channel,
		Refunded: refunded,
		Reason:   reason,
	})
	b.logger().WithField("reason", reason).Info("Event cancelled")
	return nil
}

// settled moves the event into cooldown once payouts are done
func (b *Base[P]) settled(ctx context.Context, outcome events.ParticipationSettledEvent) {
	b.state = StateCooldown
	b.svc.startCooldown(b.id)
	telemetry.EventSettled(b.kind)

	outcome.EventID = b.id.String()
	outcome.Kind = b.kind
	outcome.Channel = b.channel
	b.svc.emit(ctx, outcome)

	b.logger().WithFields(log.Fields{
		"winners": outcome.Winners,
		"losers":  outcome.Losers,
	}).Info("Event settled")
}

func usernames[P participantLike](participants []P) []string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.base().Username())
	}
	return names
}
