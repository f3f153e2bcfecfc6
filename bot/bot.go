package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chewbot/bot/common"
	"chewbot/participation"

	twitch "github.com/gempir/go-twitch-irc/v4"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Username   string
	OAuthToken string
	Channels   []string
	Prefix     string
}

// Bot receives Twitch chat, dispatches commands onto the event loop and
// owns the IRC connection
type Bot struct {
	config    Config
	client    *twitch.Client
	chat      *TwitchChat
	loop      *participation.Loop
	users     common.Users
	commands  map[string]common.Command
	listeners []common.Listener
}

// New creates a bot. Features are added with Register before Run.
func New(config Config, loop *participation.Loop, users common.Users) *Bot {
	client := twitch.NewClient(config.Username, ensureOAuthPrefix(config.OAuthToken))
	return newBot(config, client, NewTwitchChat(client), loop, users)
}

func newBot(config Config, client *twitch.Client, chat *TwitchChat, loop *participation.Loop, users common.Users) *Bot {
	if config.Prefix == "" {
		config.Prefix = "!"
	}
	b := &Bot{
		config:   config,
		client:   client,
		chat:     chat,
		loop:     loop,
		users:    users,
		commands: make(map[string]common.Command),
	}

	if client != nil {
		client.OnPrivateMessage(b.onPrivateMessage)
		client.OnWhisperMessage(b.onWhisperMessage)
		client.OnConnect(func() {
			log.WithField("channels", config.Channels).Info("Connected to Twitch chat")
		})
	}
	return b
}

func ensureOAuthPrefix(token string) string {
	if token == "" || strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

// Chat returns the chat transport used for replies and engine messages
func (b *Bot) Chat() *TwitchChat {
	return b.chat
}

// Register adds commands under their name and aliases
func (b *Bot) Register(commands ...common.Command) {
	for _, cmd := range commands {
		b.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			b.commands[alias] = cmd
		}
		log.WithFields(log.Fields{
			"command": cmd.Name(),
			"aliases": cmd.Aliases(),
		}).Debug("Registered command")
	}
}

// Listen adds a handler for non-command messages
func (b *Bot) Listen(listeners ...common.Listener) {
	b.listeners = append(b.listeners, listeners...)
}

// Run joins the configured channels and blocks until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("bot has no twitch client")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		if err := b.client.Disconnect(); err != nil {
			log.WithError(err).Warn("Failed to disconnect from Twitch chat")
		}
	}()

	b.client.Join(b.config.Channels...)
	err := b.client.Connect()
	if ctx.Err() != nil {
		<-done
		return nil
	}
	if errors.Is(err, twitch.ErrClientDisconnected) {
		return nil
	}
	return fmt.Errorf("twitch chat connection failed: %w", err)
}

func (b *Bot) onPrivateMessage(msg twitch.PrivateMessage) {
	b.Dispatch(context.Background(), common.Message{
		Channel:     msg.Channel,
		Username:    msg.User.Name,
		DisplayName: msg.User.DisplayName,
		Text:        msg.Message,
	})
}

func (b *Bot) onWhisperMessage(msg twitch.WhisperMessage) {
	b.Dispatch(context.Background(), common.Message{
		Username:    msg.User.Name,
		DisplayName: msg.User.DisplayName,
		Text:        msg.Message,
		Private:     true,
	})
}

// Dispatch routes one chat line. Commands and listeners run on the event
// loop, so they never race with event timers.
func (b *Bot) Dispatch(ctx context.Context, msg common.Message) {
	if strings.EqualFold(msg.Username, b.config.Username) {
		return
	}

	name, args, isCommand := common.Parse(b.config.Prefix, msg.Text)
	if !isCommand {
		b.notifyListeners(ctx, msg)
		return
	}

	cmd, found := b.commands[name]
	if !found {
		return
	}

	err := b.loop.Do(ctx, func(ctx context.Context) {
		b.runCommand(ctx, cmd, name, args, msg)
	})
	if err != nil {
		log.WithError(err).WithField("command", name).Error("Failed to schedule command")
	}
}

func (b *Bot) runCommand(ctx context.Context, cmd common.Command, name string, args []string, msg common.Message) {
	logger := log.WithFields(log.Fields{
		"command":  name,
		"channel":  msg.Channel,
		"username": msg.Username,
	})

	sender, err := b.users.GetOrCreateUser(ctx, msg.Username, msg.DisplayName)
	if err != nil {
		logger.WithError(err).Error("Failed to resolve command sender")
		return
	}

	c := &common.Context{
		Message: msg,
		Name:    name,
		Args:    args,
		Sender:  sender,
		Out:     b.chat,
	}
	if err := cmd.Handle(ctx, c); err != nil {
		logger.WithError(err).Error("Command failed")
	}
}

func (b *Bot) notifyListeners(ctx context.Context, msg common.Message) {
	if len(b.listeners) == 0 {
		return
	}

	err := b.loop.Do(ctx, func(ctx context.Context) {
		c := &common.Context{Message: msg, Out: b.chat}
		for _, listener := range b.listeners {
			if err := listener.HandleMessage(ctx, c); err != nil {
				log.WithError(err).WithField("username", msg.Username).Error("Message listener failed")
			}
		}
	})
	if err != nil {
		log.WithError(err).Error("Failed to schedule message listeners")
	}
}
