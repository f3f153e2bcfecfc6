package bankheist

import (
	"context"

	"chewbot/bot/common"
	"chewbot/participation"
)

// handleHeist joins the running heist in the channel or plans a new one
func (f *Feature) handleHeist(ctx context.Context, c *common.Context) error {
	if c.Message.Private {
		return nil
	}
	if len(c.Args) == 0 {
		return c.Reply(ctx, f.translator.T("bankheist_usage", nil))
	}

	amount, err := common.ParseAmount(c.Args[0])
	if err != nil {
		return c.Reply(ctx, f.translator.T("bankheist_invalid_amount", map[string]any{"User": c.Sender.Name()}))
	}

	if heist := participation.FindBankheist(f.events, c.Message.Channel); heist != nil {
		reply, err := heist.Join(ctx, c.Sender, amount)
		if err != nil {
			return err
		}
		return c.Reply(ctx, reply.Message)
	}

	heist := participation.NewBankheist(f.events, c.Message.Channel, c.Sender, amount, f.timing.Participation, f.timing.Cooldown)
	result, err := f.events.StartEvent(ctx, heist, c.Sender)
	if err != nil {
		return err
	}
	return c.Reply(ctx, result.Rejection)
}
