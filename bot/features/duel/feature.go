package duel

import (
	"context"

	"chewbot/bot/common"
	"chewbot/participation"
)

// Feature runs rock-paper-scissors duels: !duel to challenge, !accept to
// take a challenge and a whispered weapon to fight.
type Feature struct {
	users      common.Users
	events     *participation.Service
	translator common.Translator
	timing     common.Timing
}

func New(users common.Users, events *participation.Service, translator common.Translator, timing common.Timing) *Feature {
	return &Feature{
		users:      users,
		events:     events,
		translator: translator,
		timing:     timing,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{challengeCommand{f}, acceptCommand{f}}
}

// HandleMessage picks up whispered weapons
func (f *Feature) HandleMessage(ctx context.Context, c *common.Context) error {
	return f.handleWeapon(ctx, c)
}

type challengeCommand struct{ f *Feature }

func (challengeCommand) Name() string      { return "duel" }
func (challengeCommand) Aliases() []string { return nil }

func (c challengeCommand) Handle(ctx context.Context, cc *common.Context) error {
	return c.f.handleChallenge(ctx, cc)
}

type acceptCommand struct{ f *Feature }

func (acceptCommand) Name() string      { return "accept" }
func (acceptCommand) Aliases() []string { return nil }

func (c acceptCommand) Handle(ctx context.Context, cc *common.Context) error {
	return c.f.handleAccept(ctx, cc)
}
