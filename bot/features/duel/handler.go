package duel

import (
	"context"
	"fmt"
	"strings"

	"chewbot/bot/common"
	"chewbot/models"
	"chewbot/participation"
)

// handleChallenge starts a duel: "!duel @bob 100" names a target, "!duel 100"
// is open to anyone
func (f *Feature) handleChallenge(ctx context.Context, c *common.Context) error {
	if c.Message.Private {
		return nil
	}

	args := c.Args
	if len(args) == 0 {
		return c.Reply(ctx, f.translator.T("duel_usage", nil))
	}

	var target *models.User
	if len(args) > 1 || common.IsMention(args[0]) {
		name := strings.TrimPrefix(args[0], "@")
		user, err := f.users.GetUser(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to look up duel target %s: %w", name, err)
		}
		if user == nil {
			return c.Reply(ctx, f.translator.T("duel_unknown_user", map[string]any{"User": name}))
		}
		target = user
		args = args[1:]
	}
	if len(args) == 0 {
		return c.Reply(ctx, f.translator.T("duel_usage", nil))
	}

	amount, err := common.ParseAmount(args[0])
	if err != nil {
		return c.Reply(ctx, f.translator.T("duel_invalid_amount", map[string]any{"User": c.Sender.Name()}))
	}

	duel := participation.NewDuel(f.events, c.Message.Channel, c.Sender, target, amount, f.timing.Participation, f.timing.Cooldown)
	result, err := f.events.StartEvent(ctx, duel, c.Sender)
	if err != nil {
		return err
	}
	if !result.Started() {
		return c.Reply(ctx, result.Rejection)
	}
	return nil
}

// handleAccept joins the challenge meant for the sender. "!accept @alice"
// picks alice's challenge when several are open.
func (f *Feature) handleAccept(ctx context.Context, c *common.Context) error {
	if c.Message.Private {
		return nil
	}

	var initiator string
	if len(c.Args) > 0 {
		initiator = strings.ToLower(strings.TrimPrefix(c.Args[0], "@"))
	}

	duel := participation.FindDuelToAccept(f.events, c.Message.Channel, c.Sender, initiator)
	if duel == nil {
		return c.Reply(ctx, f.translator.T("duel_none", map[string]any{"User": c.Sender.Name()}))
	}

	reply, err := duel.Accept(ctx, c.Sender)
	if err != nil {
		return err
	}
	if !reply.OK {
		return c.Reply(ctx, reply.Message)
	}
	return nil
}

func (f *Feature) handleWeapon(ctx context.Context, c *common.Context) error {
	weapon, ok := participation.ParseWeapon(c.Message.Text)
	if !ok {
		return nil
	}

	username := strings.ToLower(c.Message.Username)
	duel := participation.FindDuelForWeapon(f.events, username)
	if duel == nil {
		return nil
	}
	duelist, found := duel.Participant(username)
	if !found {
		return nil
	}

	if _, err := duel.SetWeapon(ctx, duelist.User, weapon, c.Message.Private); err != nil {
		return fmt.Errorf("failed to set weapon for duel %s: %w", duel.ID(), err)
	}
	return nil
}
