package participation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chewbot/events"
	"chewbot/models"
)

// KindBankheist identifies bank heists in the registry
const KindBankheist = "bankheist"

// HeistLevel sets the survival chance for crews of at least MinCrew members
type HeistLevel struct {
	MinCrew       int
	SuccessChance float64
}

// DefaultHeistLevels grow the survival chance with the crew size
var DefaultHeistLevels = []HeistLevel{
	{MinCrew: 2, SuccessChance: 0.40},
	{MinCrew: 5, SuccessChance: 0.50},
	{MinCrew: 10, SuccessChance: 0.60},
	{MinCrew: 20, SuccessChance: 0.70},
}

// Bankheist lets any number of users put chews in. At the end of the
// participation period every member survives or gets caught on their own roll;
// survivors double their wager.
type Bankheist struct {
	Base[*Participant]
	levels []HeistLevel

	// rolled outcome and paid survivors survive a failed payout, so a retried
	// timeout neither rerolls nor pays anyone twice
	survivors map[string]bool
	paid      map[string]bool
}

// NewBankheist creates a heist planned by initiator
func NewBankheist(svc *Service, channel string, initiator *models.User, wager int64, participation, cooldown time.Duration) *Bankheist {
	h := &Bankheist{
		Base:   newBase[*Participant](svc, KindBankheist, channel, participation, cooldown, 2, 0),
		levels: DefaultHeistLevels,
	}
	h.AddParticipant(&Participant{User: initiator, Wager: wager})
	return h
}

// SuccessChance returns the survival chance for a crew of size members
func (h *Bankheist) SuccessChance(size int) float64 {
	chance := 0.0
	for _, level := range h.levels {
		if size >= level.MinCrew {
			chance = level.SuccessChance
		}
	}
	return chance
}

// Start escrows the initiator's wager and announces the heist
func (h *Bankheist) Start(ctx context.Context) (Reply, error) {
	initiator := h.participants[0]
	if initiator.Wager <= 0 {
		return replyReject(h.t("bankheist_invalid_amount", map[string]any{"User": initiator.User.Name()})), nil
	}

	escrowed, err := h.escrow(ctx, initiator.User, initiator.Wager)
	if err != nil {
		return Reply{}, err
	}
	if !escrowed {
		return replyReject(h.t("bankheist_not_enough_chews", map[string]any{
			"User":   initiator.User.Name(),
			"Amount": initiator.Wager,
		})), nil
	}
	initiator.Accepted = true

	h.say(ctx, "bankheist_started", map[string]any{
		"User":    initiator.User.Name(),
		"Amount":  initiator.Wager,
		"Seconds": int(h.participationPeriod.Seconds()),
	})
	return replyOK(), nil
}

// Join adds user to the crew with their own wager
func (h *Bankheist) Join(ctx context.Context, user *models.User, wager int64) (Reply, error) {
	// once the outcome is rolled the crew is fixed, even while a payout is retried
	if !h.state.Live() || h.survivors != nil {
		return replyReject(h.t("bankheist_closed", map[string]any{"User": user.Name()})), nil
	}
	if h.HasParticipant(user.Username) {
		return replyReject(h.t("bankheist_already_joined", map[string]any{"User": user.Name()})), nil
	}
	if wager <= 0 {
		return replyReject(h.t("bankheist_invalid_amount", map[string]any{"User": user.Name()})), nil
	}

	escrowed, err := h.escrow(ctx, user, wager)
	if err != nil {
		return Reply{}, err
	}
	if !escrowed {
		return replyReject(h.t("bankheist_not_enough_chews", map[string]any{
			"User":   user.Name(),
			"Amount": wager,
		})), nil
	}

	h.AddParticipant(&Participant{User: user, Wager: wager, Accepted: true})
	h.say(ctx, "bankheist_joined", map[string]any{
		"User":   user.Name(),
		"Amount": wager,
	})
	return replyOK(), nil
}

// ParticipationPeriodEnded runs the heist, or refunds a lone robber
func (h *Bankheist) ParticipationPeriodEnded(ctx context.Context) error {
	if !h.state.Live() {
		return nil
	}
	if h.state == StateOpen {
		return h.cancel(ctx, "not_enough_crew", "bankheist_cancelled", nil)
	}

	if h.survivors == nil {
		chance := h.SuccessChance(len(h.participants))
		h.survivors = make(map[string]bool, len(h.participants))
		h.paid = make(map[string]bool)
		for _, p := range h.participants {
			h.survivors[p.Username()] = h.svc.env.Random.Float64() < chance
		}
	}

	var survivors, caught []*Participant
	payouts := make(map[string]int64)
	for _, p := range h.participants {
		if !h.survivors[p.Username()] {
			caught = append(caught, p)
			continue
		}
		survivors = append(survivors, p)
		payouts[p.Username()] = p.Wager * 2
		if h.paid[p.Username()] {
			continue
		}
		if err := h.pay(ctx, []*models.User{p.User}, p.Wager*2, models.TransactionTypeBankheistPayout); err != nil {
			return err
		}
		h.paid[p.Username()] = true
	}

	if len(survivors) == 0 {
		h.say(ctx, "bankheist_all_caught", nil)
	} else {
		names := make([]string, 0, len(survivors))
		for _, p := range survivors {
			names = append(names, fmt.Sprintf("%s (%d)", p.User.Name(), p.Wager*2))
		}
		h.say(ctx, "bankheist_result", map[string]any{"Survivors": strings.Join(names, ", ")})
	}

	h.settled(ctx, events.ParticipationSettledEvent{
		Winners: usernames(survivors),
		Losers:  usernames(caught),
		Payouts: payouts,
		Summary: "heist",
	})
	return nil
}

// FindBankheist returns the live bank heist in channel, if any
func FindBankheist(svc *Service, channel string) *Bankheist {
	for _, h := range GetEvents[*Bankheist](svc) {
		if h.Channel() == channel {
			return h
		}
	}
	return nil
}
