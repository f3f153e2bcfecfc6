package participation

import (
	"context"
	"math"
	"strings"
	"time"

	"chewbot/events"
	"chewbot/models"

	log "github.com/sirupsen/logrus"
)

// KindDuel identifies duels in the registry
const KindDuel = "duel"

// duelTiePenalty is the share of the wager each duelist loses on a tie
const duelTiePenalty = 0.10

// Weapon is a rock-paper-scissors choice
type Weapon int

const (
	WeaponNone Weapon = iota
	Rock
	Paper
	Scissors
)

// ParseWeapon reads a whispered weapon name
func ParseWeapon(s string) (Weapon, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rock":
		return Rock, true
	case "paper":
		return Paper, true
	case "scissors":
		return Scissors, true
	}
	return WeaponNone, false
}

func (w Weapon) String() string {
	switch w {
	case Rock:
		return "Rock"
	case Paper:
		return "Paper"
	case Scissors:
		return "Scissors"
	}
	return "None"
}

// Beats reports whether w wins against other
func (w Weapon) Beats(other Weapon) bool {
	return (w == Rock && other == Scissors) ||
		(w == Scissors && other == Paper) ||
		(w == Paper && other == Rock)
}

func (w Weapon) verb() string {
	switch w {
	case Rock:
		return "smashed"
	case Paper:
		return "covered"
	case Scissors:
		return "cut"
	}
	return ""
}

// DuelParticipant is a duelist with their current weapon
type DuelParticipant struct {
	Participant
	Weapon Weapon
}

// Duel is a two-player rock-paper-scissors match for equal wagers. The target
// is optional; without one any user may accept.
type Duel struct {
	Base[*DuelParticipant]
	target *models.User
	wager  int64
}

// NewDuel creates a duel challenge. It is not live until started through the Service.
func NewDuel(svc *Service, channel string, initiator, target *models.User, wager int64, participation, cooldown time.Duration) *Duel {
	d := &Duel{
		Base:   newBase[*DuelParticipant](svc, KindDuel, channel, participation, cooldown, 2, 2),
		target: target,
		wager:  wager,
	}
	d.AddParticipant(&DuelParticipant{Participant: Participant{User: initiator, Wager: wager}})
	return d
}

// Wager is the amount each duelist puts in
func (d *Duel) Wager() int64 { return d.wager }

// Target is the challenged user, nil for an open challenge
func (d *Duel) Target() *models.User { return d.target }

// Involves reports whether username is a duelist or the pending target
func (d *Duel) Involves(username string) bool {
	if d.HasParticipant(username) {
		return true
	}
	return d.state == StateOpen && d.target != nil && d.target.Username == username
}

// CheckForOngoingEvent lets different users run open challenges side by side.
// A user may only be in one live duel, and cooldown blocks every new duel in the channel.
func (d *Duel) CheckForOngoingEvent(candidate Event, initiator *models.User) (bool, string) {
	if candidate.Kind() != KindDuel || candidate.Channel() != d.channel {
		return true, ""
	}
	if d.state == StateCooldown {
		return false, d.t("event_cooldown", map[string]any{"Kind": KindDuel})
	}
	if !d.state.Live() || initiator == nil {
		return true, ""
	}

	if initiator.Username == d.Initiator().Username {
		return false, d.t("duel_already_running", map[string]any{"User": initiator.Name()})
	}
	if d.Involves(initiator.Username) {
		return false, d.t("duel_user_busy", map[string]any{"User": initiator.Name()})
	}
	if other, ok := candidate.(*Duel); ok && other.target != nil && d.Involves(other.target.Username) {
		return false, d.t("duel_user_busy", map[string]any{"User": other.target.Name()})
	}
	return true, ""
}

// Start escrows the initiator's wager and announces the challenge
func (d *Duel) Start(ctx context.Context) (Reply, error) {
	initiator := d.participants[0]
	if d.wager <= 0 {
		return replyReject(d.t("duel_invalid_amount", map[string]any{"User": initiator.User.Name()})), nil
	}
	if d.target != nil && d.target.Username == initiator.Username() {
		return replyReject(d.t("duel_self", map[string]any{"User": initiator.User.Name()})), nil
	}

	escrowed, err := d.escrow(ctx, initiator.User, d.wager)
	if err != nil {
		return Reply{}, err
	}
	if !escrowed {
		return replyReject(d.t("duel_not_enough_chews", map[string]any{
			"User":   initiator.User.Name(),
			"Amount": d.wager,
		})), nil
	}
	initiator.Accepted = true

	data := map[string]any{
		"Initiator": initiator.User.Name(),
		"Amount":    d.wager,
		"Seconds":   int(d.participationPeriod.Seconds()),
	}
	if d.target != nil {
		data["Target"] = d.target.Name()
		d.say(ctx, "duel_challenge", data)
	} else {
		d.say(ctx, "duel_open_challenge", data)
	}
	return replyOK(), nil
}

// Accept enters user into the duel. The user must hold the wager; the check
// and the escrow are one balance call, so a failed accept changes nothing.
func (d *Duel) Accept(ctx context.Context, user *models.User) (Reply, error) {
	if d.state != StateOpen || user.Username == d.Initiator().Username {
		return replyReject(d.t("duel_none", map[string]any{"User": user.Name()})), nil
	}
	if d.target != nil && d.target.Username != user.Username {
		return replyReject(d.t("duel_not_target", map[string]any{"User": user.Name()})), nil
	}
	if d.userBusy(user.Username) {
		return replyReject(d.t("duel_user_busy", map[string]any{"User": user.Name()})), nil
	}

	notEnough := replyReject(d.t("duel_accept_not_enough_chews", map[string]any{
		"User":   user.Name(),
		"Amount": d.wager,
	}))
	if user.Points < d.wager {
		return notEnough, nil
	}
	escrowed, err := d.escrow(ctx, user, d.wager)
	if err != nil {
		return Reply{}, err
	}
	if !escrowed {
		return notEnough, nil
	}

	d.AddParticipant(&DuelParticipant{Participant: Participant{User: user, Wager: d.wager, Accepted: true}})

	initiator := d.participants[0].User
	d.say(ctx, "duel_accepted", map[string]any{
		"Initiator": initiator.Name(),
		"Target":    user.Name(),
	})
	d.whisper(ctx, initiator.Username, "duel_weapon_prompt", map[string]any{"Opponent": user.Name()})
	d.whisper(ctx, user.Username, "duel_weapon_prompt", map[string]any{"Opponent": initiator.Name()})

	d.logger().WithField("target", user.Username).Info("Duel accepted")
	return replyOK(), nil
}

// userBusy reports whether username is already part of another live duel,
// including their own open challenge
func (d *Duel) userBusy(username string) bool {
	for _, other := range GetEvents[*Duel](d.svc) {
		if other != d && other.state.Live() && other.Involves(username) {
			return true
		}
	}
	return false
}

// SetWeapon records a duelist's choice. Only private choices count; public
// ones are logged and ignored. A later choice replaces an earlier one, and the
// duel settles as soon as both duelists have chosen.
func (d *Duel) SetWeapon(ctx context.Context, user *models.User, weapon Weapon, private bool) (Reply, error) {
	if !private {
		d.logger().WithField("username", user.Username).Info("Ignoring weapon choice made in public chat")
		return Reply{}, nil
	}
	if d.state != StateBoardingCompleted || weapon == WeaponNone {
		return Reply{}, nil
	}
	duelist, found := d.Participant(user.Username)
	if !found {
		return Reply{}, nil
	}

	duelist.Weapon = weapon
	d.whisper(ctx, user.Username, "duel_weapon_set", map[string]any{"Weapon": weapon.String()})

	for _, p := range d.participants {
		if p.Weapon == WeaponNone {
			return replyOK(), nil
		}
	}
	if err := d.settle(ctx); err != nil {
		return Reply{}, err
	}
	return replyOK(), nil
}

func (d *Duel) settle(ctx context.Context) error {
	first, second := d.participants[0], d.participants[1]

	if first.Weapon == second.Weapon {
		lost := int64(math.Round(float64(d.wager) * duelTiePenalty))
		refund := d.wager - lost
		if err := d.pay(ctx, []*models.User{first.User, second.User}, refund, models.TransactionTypeDuelTie); err != nil {
			return err
		}

		d.say(ctx, "duel_tie", map[string]any{
			"First":  first.User.Name(),
			"Second": second.User.Name(),
			"Weapon": first.Weapon.String(),
		})
		d.say(ctx, "duel_tie_loss", map[string]any{
			"First":  first.User.Name(),
			"Second": second.User.Name(),
			"Amount": lost,
		})

		d.settled(ctx, events.ParticipationSettledEvent{
			Payouts: map[string]int64{first.Username(): refund, second.Username(): refund},
			Summary: "tie",
		})
		return nil
	}

	winner, loser := first, second
	if second.Weapon.Beats(first.Weapon) {
		winner, loser = second, first
	}
	if err := d.pay(ctx, []*models.User{winner.User}, d.wager*2, models.TransactionTypeDuelWin); err != nil {
		return err
	}

	d.say(ctx, "duel_win", map[string]any{
		"WinnerWeapon": winner.Weapon.String(),
		"Verb":         winner.Weapon.verb(),
		"LoserWeapon":  loser.Weapon.String(),
		"Winner":       winner.User.Name(),
		"Loser":        loser.User.Name(),
	})
	d.say(ctx, "duel_wins", map[string]any{
		"Winner": winner.User.Name(),
		"Amount": d.wager,
	})

	d.settled(ctx, events.ParticipationSettledEvent{
		Winners: []string{winner.Username()},
		Losers:  []string{loser.Username()},
		Payouts: map[string]int64{winner.Username(): d.wager * 2},
		Summary: winner.Weapon.String() + " " + winner.Weapon.verb() + " " + loser.Weapon.String(),
	})
	return nil
}

// ParticipationPeriodEnded cancels an unaccepted challenge or a duel where a
// weapon is missing. Everyone gets their full wager back.
func (d *Duel) ParticipationPeriodEnded(ctx context.Context) error {
	switch d.state {
	case StateOpen:
		return d.cancel(ctx, "not_accepted", "duel_cancelled", map[string]any{
			"Initiator": d.participants[0].User.Name(),
			"Amount":    d.wager,
		})
	case StateBoardingCompleted:
		return d.cancel(ctx, "no_show", "duel_no_show", map[string]any{
			"First":  d.participants[0].User.Name(),
			"Second": d.participants[1].User.Name(),
		})
	default:
		log.WithField("eventID", d.id).Debug("Duel timeout after it already ended")
		return nil
	}
}

// FindDuelToAccept picks the open duel in channel that user may accept.
// With initiator set, only that user's challenge is considered. Otherwise a
// challenge naming user wins over an open challenge.
func FindDuelToAccept(svc *Service, channel string, user *models.User, initiator string) *Duel {
	var open *Duel
	for _, d := range GetEvents[*Duel](svc) {
		if d.Channel() != channel || d.State() != StateOpen {
			continue
		}
		if initiator != "" && d.Initiator().Username != initiator {
			continue
		}
		if d.target != nil && d.target.Username == user.Username {
			return d
		}
		if d.target == nil && open == nil && d.Initiator().Username != user.Username {
			open = d
		}
	}
	return open
}

// FindDuelForWeapon returns the duel in which username is waiting to pick a weapon
func FindDuelForWeapon(svc *Service, username string) *Duel {
	for _, d := range GetEvents[*Duel](svc) {
		if d.State() == StateBoardingCompleted && d.HasParticipant(username) {
			return d
		}
	}
	return nil
}
