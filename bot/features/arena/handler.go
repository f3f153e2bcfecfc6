package arena

import (
	"context"

	"chewbot/bot/common"
	"chewbot/participation"
)

// handleArena joins the open arena, or opens one when a fee is given
func (f *Feature) handleArena(ctx context.Context, c *common.Context) error {
	if c.Message.Private {
		return nil
	}

	if arena := participation.FindArena(f.events, c.Message.Channel); arena != nil {
		reply, err := arena.Join(ctx, c.Sender)
		if err != nil {
			return err
		}
		return c.Reply(ctx, reply.Message)
	}

	if len(c.Args) == 0 {
		return c.Reply(ctx, f.translator.T("arena_none", map[string]any{"User": c.Sender.Name()}))
	}
	fee, err := common.ParseAmount(c.Args[0])
	if err != nil {
		return c.Reply(ctx, f.translator.T("arena_invalid_amount", map[string]any{"User": c.Sender.Name()}))
	}

	arena := participation.NewArena(f.events, c.Message.Channel, c.Sender, fee, f.timing.Participation, f.timing.Cooldown, f.timeoutSeconds)
	result, err := f.events.StartEvent(ctx, arena, c.Sender)
	if err != nil {
		return err
	}
	return c.Reply(ctx, result.Rejection)
}
