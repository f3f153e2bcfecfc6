package bankheist

import (
	"context"

	"chewbot/bot/common"
	"chewbot/participation"
)

type Feature struct {
	events     *participation.Service
	translator common.Translator
	timing     common.Timing
}

func New(events *participation.Service, translator common.Translator, timing common.Timing) *Feature {
	return &Feature{
		events:     events,
		translator: translator,
		timing:     timing,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{heistCommand{f}}
}

type heistCommand struct{ f *Feature }

func (heistCommand) Name() string      { return "bankheist" }
func (heistCommand) Aliases() []string { return []string{"heist"} }

func (c heistCommand) Handle(ctx context.Context, cc *common.Context) error {
	return c.f.handleHeist(ctx, cc)
}
