package points

import (
	"context"
	"fmt"
	"strings"

	"chewbot/bot/common"
)

func (f *Feature) handleBalance(ctx context.Context, c *common.Context) error {
	user := c.Sender
	if len(c.Args) > 0 {
		name := strings.TrimPrefix(c.Args[0], "@")
		found, err := f.users.GetUser(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to look up user %s: %w", name, err)
		}
		if found == nil {
			return c.Reply(ctx, f.translator.T("points_unknown", map[string]any{"User": name}))
		}
		user = found
	}

	return c.Reply(ctx, f.translator.T("points_balance", map[string]any{
		"User":   user.Name(),
		"Points": common.FormatBalance(user.Points),
	}))
}

func (f *Feature) handleLeaderboard(ctx context.Context, c *common.Context) error {
	top, err := f.users.GetLeaderboard(ctx, leaderboardSize)
	if err != nil {
		return fmt.Errorf("failed to get leaderboard: %w", err)
	}
	if len(top) == 0 {
		return nil
	}

	entries := make([]string, len(top))
	for i, user := range top {
		entries[i] = fmt.Sprintf("%d. %s (%s)", i+1, user.Name(), common.FormatBalance(user.Points))
	}
	return c.Reply(ctx, f.translator.T("points_leaderboard", map[string]any{
		"Entries": strings.Join(entries, ", "),
	}))
}
