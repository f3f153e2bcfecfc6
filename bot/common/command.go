package common

import (
	"context"
	"strings"
	"time"

	"chewbot/models"
)

// Message is one incoming chat line, public or whispered
type Message struct {
	Channel     string
	Username    string
	DisplayName string
	Text        string
	Private     bool
}

// Sender delivers replies to chat
type Sender interface {
	SendMessage(ctx context.Context, channel, text string) error
	SendWhisper(ctx context.Context, username, text string) error
}

// Users is the user directory as seen by command handlers
type Users interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetOrCreateUser(ctx context.Context, username, displayName string) (*models.User, error)
	GetLeaderboard(ctx context.Context, limit int) ([]*models.User, error)
}

// Translator renders a catalog message
type Translator interface {
	T(key string, data map[string]any) string
}

// Timing is the participation and cooldown period of one event kind
type Timing struct {
	Participation time.Duration
	Cooldown      time.Duration
}

// Context is handed to a command handler
type Context struct {
	Message Message
	Name    string
	Args    []string

	// Sender is the resolved user who sent the command. It is nil for listeners.
	Sender *models.User
	Out    Sender
}

// Reply answers where the message came from. Empty text is not sent.
func (c *Context) Reply(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if c.Message.Private {
		return c.Out.SendWhisper(ctx, c.Message.Username, text)
	}
	return c.Out.SendMessage(ctx, c.Message.Channel, text)
}

// Command is a prefixed chat command
type Command interface {
	Name() string
	Aliases() []string
	Handle(ctx context.Context, c *Context) error
}

// Listener sees every message that is not a command
type Listener interface {
	HandleMessage(ctx context.Context, c *Context) error
}

// Parse splits "!duel @bob 100" into its name and arguments. ok is false
// when text does not start with prefix.
func Parse(prefix, text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
