package points

import (
	"context"

	"chewbot/bot/common"
)

// leaderboardSize is how many users !top lists
const leaderboardSize = 5

type Feature struct {
	users      common.Users
	translator common.Translator
}

func New(users common.Users, translator common.Translator) *Feature {
	return &Feature{
		users:      users,
		translator: translator,
	}
}

// Commands returns !points and !top
func (f *Feature) Commands() []common.Command {
	return []common.Command{balanceCommand{f}, leaderboardCommand{f}}
}

type balanceCommand struct{ f *Feature }

func (balanceCommand) Name() string      { return "points" }
func (balanceCommand) Aliases() []string { return []string{"chews"} }

func (c balanceCommand) Handle(ctx context.Context, cc *common.Context) error {
	return c.f.handleBalance(ctx, cc)
}

type leaderboardCommand struct{ f *Feature }

func (leaderboardCommand) Name() string      { return "top" }
func (leaderboardCommand) Aliases() []string { return nil }

func (c leaderboardCommand) Handle(ctx context.Context, cc *common.Context) error {
	return c.f.handleLeaderboard(ctx, cc)
}
