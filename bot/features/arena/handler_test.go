package arena

import (
	"context"
	"testing"

	"chewbot/bot/features/featuretest"
	"chewbot/participation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_OpenAndJoin(t *testing.T) {
	env := featuretest.New(t)
	env.Users.Add("alice", 100)
	env.Users.Add("bob", 100)
	env.Users.Add("carol", 100)
	f := New(env.Service, env.Translator, featuretest.Timing, 60)
	ctx := context.Background()

	require.NoError(t, f.handleArena(ctx, env.Context(t, "alice", "arena", "25")))
	require.NoError(t, f.handleArena(ctx, env.Context(t, "bob", "arena")))
	// a fee given while an arena is open is ignored
	require.NoError(t, f.handleArena(ctx, env.Context(t, "carol", "arena", "99")))

	arena := participation.FindArena(env.Service, featuretest.Channel)
	require.NotNil(t, arena)
	assert.Equal(t, int64(25), arena.Fee())
	assert.Len(t, arena.Participants(), 3)
	for _, name := range []string{"alice", "bob", "carol"} {
		assert.Equal(t, int64(75), env.Users.Points(name))
	}
	assert.Equal(t, "carol entered the arena.", env.Chat.Last())
}

func TestArena_Rejections(t *testing.T) {
	env := featuretest.New(t)
	env.Users.Add("alice", 100)
	f := New(env.Service, env.Translator, featuretest.Timing, 60)
	ctx := context.Background()

	require.NoError(t, f.handleArena(ctx, env.Context(t, "alice", "arena")))
	assert.Equal(t, "alice, there is no arena to join. Open one with !arena <fee>.", env.Chat.Last())

	require.NoError(t, f.handleArena(ctx, env.Context(t, "alice", "arena", "zero")))
	assert.Equal(t, "alice, the entry fee has to be a positive number of chews.", env.Chat.Last())

	require.NoError(t, f.handleArena(ctx, env.Context(t, "alice", "arena", "10")))
	require.NoError(t, f.handleArena(ctx, env.Context(t, "alice", "arena")))
	assert.Equal(t, "alice, you are already in the arena.", env.Chat.Last())
	assert.Equal(t, int64(90), env.Users.Points("alice"))
}
