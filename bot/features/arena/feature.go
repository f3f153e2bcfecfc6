package arena

import (
	"context"

	"chewbot/bot/common"
	"chewbot/participation"
)

type Feature struct {
	events         *participation.Service
	translator     common.Translator
	timing         common.Timing
	timeoutSeconds int
}

// New creates the arena feature. Losers are timed out for timeoutSeconds.
func New(events *participation.Service, translator common.Translator, timing common.Timing, timeoutSeconds int) *Feature {
	return &Feature{
		events:         events,
		translator:     translator,
		timing:         timing,
		timeoutSeconds: timeoutSeconds,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{arenaCommand{f}}
}

type arenaCommand struct{ f *Feature }

func (arenaCommand) Name() string      { return "arena" }
func (arenaCommand) Aliases() []string { return nil }

func (c arenaCommand) Handle(ctx context.Context, cc *common.Context) error {
	return c.f.handleArena(ctx, cc)
}
