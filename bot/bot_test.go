package bot

import (
	"context"
	"testing"

	"chewbot/bot/common"
	"chewbot/models"
	"chewbot/participation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetUser(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUsers) GetOrCreateUser(ctx context.Context, username, displayName string) (*models.User, error) {
	args := m.Called(ctx, username, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUsers) GetLeaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.User), args.Error(1)
}

type echoCommand struct {
	calls []*common.Context
}

func (c *echoCommand) Name() string      { return "echo" }
func (c *echoCommand) Aliases() []string { return []string{"say"} }

func (c *echoCommand) Handle(ctx context.Context, cc *common.Context) error {
	c.calls = append(c.calls, cc)
	return cc.Reply(ctx, cc.Sender.Name()+" said "+cc.Args[0])
}

type recordingListener struct {
	messages []common.Message
}

func (l *recordingListener) HandleMessage(_ context.Context, c *common.Context) error {
	l.messages = append(l.messages, c.Message)
	return nil
}

func newTestBot(t *testing.T, users common.Users) (*Bot, *fakeIRC) {
	t.Helper()
	loop := participation.NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	irc := &fakeIRC{}
	b := newBot(Config{Username: "chewbot", Channels: []string{"chewchannel"}}, nil, NewTwitchChat(irc), loop, users)
	return b, irc
}

func TestBot_DispatchCommand(t *testing.T) {
	users := new(mockUsers)
	alice := &models.User{Username: "alice", DisplayName: "Alice", Points: 100}
	users.On("GetOrCreateUser", mock.Anything, "alice", "Alice").Return(alice, nil)

	b, irc := newTestBot(t, users)
	cmd := &echoCommand{}
	b.Register(cmd)

	b.Dispatch(context.Background(), common.Message{Channel: "chewchannel", Username: "alice", DisplayName: "Alice", Text: "!say hi"})

	require.Len(t, cmd.calls, 1)
	assert.Equal(t, "say", cmd.calls[0].Name)
	assert.Same(t, alice, cmd.calls[0].Sender)
	assert.Equal(t, []string{"chewchannel: Alice said hi"}, irc.said)
	users.AssertExpectations(t)
}

func TestBot_IgnoresUnknownAndOwnMessages(t *testing.T) {
	users := new(mockUsers)
	b, irc := newTestBot(t, users)
	cmd := &echoCommand{}
	b.Register(cmd)

	b.Dispatch(context.Background(), common.Message{Channel: "chewchannel", Username: "alice", Text: "!unknown"})
	b.Dispatch(context.Background(), common.Message{Channel: "chewchannel", Username: "ChewBot", Text: "!echo loop"})

	assert.Empty(t, cmd.calls)
	assert.Empty(t, irc.said)
	users.AssertNotCalled(t, "GetOrCreateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestBot_ListenersSeeNonCommands(t *testing.T) {
	users := new(mockUsers)
	b, _ := newTestBot(t, users)
	listener := &recordingListener{}
	b.Listen(listener)

	b.Dispatch(context.Background(), common.Message{Username: "alice", Text: "rock", Private: true})

	require.Len(t, listener.messages, 1)
	assert.True(t, listener.messages[0].Private)
	assert.Equal(t, "rock", listener.messages[0].Text)
}
