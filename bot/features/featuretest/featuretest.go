// Package featuretest provides in-memory collaborators for chat feature tests.
package featuretest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"chewbot/bot/common"
	"chewbot/events"
	"chewbot/messages"
	"chewbot/models"
	"chewbot/participation"
)

// Participation and Cooldown are long enough that no timer fires during a test
const (
	Participation = time.Hour
	Cooldown      = time.Hour
	Channel       = "chewchannel"
)

// Timing is the event timing used by feature tests
var Timing = common.Timing{Participation: Participation, Cooldown: Cooldown}

// Users is an in-memory user directory for both the engine and command handlers
type Users struct {
	mu    sync.Mutex
	users map[string]*models.User
}

// NewUsers creates an empty directory
func NewUsers() *Users {
	return &Users{users: make(map[string]*models.User)}
}

// Add stores a user with the given balance
func (u *Users) Add(username string, points int64) *models.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	user := &models.User{ID: int64(len(u.users) + 1), Username: username, DisplayName: username, Points: points}
	u.users[username] = user
	return user
}

// Points returns the stored balance of username
func (u *Users) Points(username string) int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.users[username]; ok {
		return user.Points
	}
	return 0
}

func (u *Users) GetUser(_ context.Context, username string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.users[strings.ToLower(username)], nil
}

func (u *Users) GetOrCreateUser(ctx context.Context, username, _ string) (*models.User, error) {
	user, _ := u.GetUser(ctx, username)
	if user != nil {
		return user, nil
	}
	return u.Add(strings.ToLower(username), 0), nil
}

func (u *Users) GetLeaderboard(_ context.Context, limit int) ([]*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []*models.User
	for _, user := range u.users {
		out = append(out, user)
	}
	slices.SortFunc(out, func(a, b *models.User) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (u *Users) ChangeUserPoints(ctx context.Context, user *models.User, delta int64, reason models.TransactionType) error {
	return u.ChangeUsersPoints(ctx, []*models.User{user}, delta, reason)
}

func (u *Users) ChangeUsersPoints(_ context.Context, users []*models.User, delta int64, _ models.TransactionType) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range users {
		stored, ok := u.users[user.Username]
		if !ok {
			return fmt.Errorf("user %s not found", user.Username)
		}
		stored.Points += delta
		user.Points = stored.Points
	}
	return nil
}

func (u *Users) TryDeductPoints(_ context.Context, user *models.User, amount int64, _ models.TransactionType) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	stored, ok := u.users[user.Username]
	if !ok {
		return false, fmt.Errorf("user %s not found", user.Username)
	}
	if stored.Points < amount {
		return false, nil
	}
	stored.Points -= amount
	user.Points = stored.Points
	return true, nil
}

// Chat records every line sent to chat, whispers and timeouts alike
type Chat struct {
	mu       sync.Mutex
	Messages []string
	Whispers map[string][]string
	Timeouts []string
}

// NewChat creates an empty recorder
func NewChat() *Chat {
	return &Chat{Whispers: make(map[string][]string)}
}

func (c *Chat) SendMessage(_ context.Context, _, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = append(c.Messages, text)
	return nil
}

func (c *Chat) SendWhisper(_ context.Context, username, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Whispers[username] = append(c.Whispers[username], text)
	return nil
}

func (c *Chat) Timeout(_ context.Context, _, username string, seconds int, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Timeouts = append(c.Timeouts, fmt.Sprintf("%s:%d", username, seconds))
	return nil
}

// Last returns the most recent public message
func (c *Chat) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1]
}

type publisher struct{}

func (publisher) Emit(context.Context, events.Event) {}

// fixedRandom makes the first fighter win and every heist member survive
type fixedRandom struct{}

func (fixedRandom) IntN(int) int     { return 0 }
func (fixedRandom) Float64() float64 { return 0 }

// Env is everything a feature test needs
type Env struct {
	Service    *participation.Service
	Users      *Users
	Chat       *Chat
	Translator *messages.Translator
}

// New creates an engine backed by in-memory collaborators. Timers are owned by
// a loop that never runs, so events stay in their participation period.
func New(t *testing.T) *Env {
	t.Helper()
	loop := participation.NewLoop(1)
	t.Cleanup(loop.Stop)

	env := &Env{
		Users:      NewUsers(),
		Chat:       NewChat(),
		Translator: messages.NewTranslator("en"),
	}
	env.Service = participation.NewService(loop, participation.Env{
		Chat:       env.Chat,
		Users:      env.Users,
		Translator: env.Translator,
		Publisher:  publisher{},
		Random:     fixedRandom{},
	})
	return env
}

// Context builds a command context for username in the test channel
func (e *Env) Context(t *testing.T, username, name string, args ...string) *common.Context {
	t.Helper()
	sender, err := e.Users.GetOrCreateUser(context.Background(), username, username)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", username, err)
	}
	return &common.Context{
		Message: common.Message{Channel: Channel, Username: username, DisplayName: username, Text: name},
		Name:    name,
		Args:    args,
		Sender:  sender,
		Out:     e.Chat,
	}
}

// Whisper builds a listener context for a private message from username
func (e *Env) Whisper(username, text string) *common.Context {
	return &common.Context{
		Message: common.Message{Username: username, DisplayName: username, Text: text, Private: true},
		Out:     e.Chat,
	}
}
