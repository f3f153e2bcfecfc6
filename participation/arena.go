package participation

import (
	"context"
	"time"

	"chewbot/events"
	"chewbot/models"
)

// KindArena identifies arenas in the registry
const KindArena = "arena"

// Arena is a last-one-standing fight with a fixed entry fee. One random
// fighter takes the whole pot; the others are timed out in chat.
type Arena struct {
	Base[*Participant]
	fee            int64
	timeoutSeconds int

	// winner is kept across a failed payout so a retried timeout does not reroll
	winner *Participant
}

// NewArena creates an arena opened by initiator
func NewArena(svc *Service, channel string, initiator *models.User, fee int64, participation, cooldown time.Duration, timeoutSeconds int) *Arena {
	a := &Arena{
		Base:           newBase[*Participant](svc, KindArena, channel, participation, cooldown, 2, 0),
		fee:            fee,
		timeoutSeconds: timeoutSeconds,
	}
	a.AddParticipant(&Participant{User: initiator, Wager: fee})
	return a
}

// Fee is the entry fee
func (a *Arena) Fee() int64 { return a.fee }

// Start escrows the initiator's fee and opens the gates
func (a *Arena) Start(ctx context.Context) (Reply, error) {
	initiator := a.participants[0]
	if a.fee <= 0 {
		return replyReject(a.t("arena_invalid_amount", map[string]any{"User": initiator.User.Name()})), nil
	}

	escrowed, err := a.escrow(ctx, initiator.User, a.fee)
	if err != nil {
		return Reply{}, err
	}
	if !escrowed {
		return replyReject(a.t("arena_not_enough_chews", map[string]any{
			"User":   initiator.User.Name(),
			"Amount": a.fee,
		})), nil
	}
	initiator.Accepted = true

	a.say(ctx, "arena_started", map[string]any{
		"User":    initiator.User.Name(),
		"Amount":  a.fee,
		"Seconds": int(a.participationPeriod.Seconds()),
	})
	return replyOK(), nil
}

// Join pays the entry fee for user
func (a *Arena) Join(ctx context.Context, user *models.User) (Reply, error) {
	if !a.state.Live() {
		return replyReject(a.t("arena_closed", map[string]any{"User": user.Name()})), nil
	}
	if a.HasParticipant(user.Username) {
		return replyReject(a.t("arena_already_joined", map[string]any{"User": user.Name()})), nil
	}

	escrowed, err := a.escrow(ctx, user, a.fee)
	if err != nil {
		return Reply{}, err
	}
	if !escrowed {
		return replyReject(a.t("arena_not_enough_chews", map[string]any{
			"User":   user.Name(),
			"Amount": a.fee,
		})), nil
	}

	a.AddParticipant(&Participant{User: user, Wager: a.fee, Accepted: true})
	a.say(ctx, "arena_joined", map[string]any{"User": user.Name()})
	return replyOK(), nil
}

// ParticipationPeriodEnded picks the winner, or refunds a lone fighter
func (a *Arena) ParticipationPeriodEnded(ctx context.Context) error {
	if !a.state.Live() {
		return nil
	}
	if a.state == StateOpen {
		return a.cancel(ctx, "not_enough_fighters", "arena_cancelled", nil)
	}

	if a.winner == nil {
		a.winner = a.participants[a.svc.env.Random.IntN(len(a.participants))]
	}
	pot := a.fee * int64(len(a.participants))
	if err := a.pay(ctx, []*models.User{a.winner.User}, pot, models.TransactionTypeArenaWin); err != nil {
		return err
	}

	a.say(ctx, "arena_result", map[string]any{
		"Winner": a.winner.User.Name(),
		"Amount": pot,
	})

	var losers []*Participant
	reason := a.t("arena_timeout_reason", nil)
	for _, p := range a.participants {
		if p == a.winner {
			continue
		}
		losers = append(losers, p)
		if err := a.svc.env.Chat.Timeout(ctx, a.channel, p.Username(), a.timeoutSeconds, reason); err != nil {
			a.logger().WithError(err).WithField("username", p.Username()).Error("Failed to time out arena loser")
		}
	}

	a.settled(ctx, events.ParticipationSettledEvent{
		Winners: []string{a.winner.Username()},
		Losers:  usernames(losers),
		Payouts: map[string]int64{a.winner.Username(): pot},
		Summary: "arena",
	})
	return nil
}

// FindArena returns the live arena in channel, if any
func FindArena(svc *Service, channel string) *Arena {
	for _, a := range GetEvents[*Arena](svc) {
		if a.Channel() == channel {
			return a
		}
	}
	return nil
}
