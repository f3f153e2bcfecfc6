package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chewbot/telemetry"

	log "github.com/sirupsen/logrus"
)

// ircClient is the part of the go-twitch-irc client used to talk
type ircClient interface {
	Say(channel, text string)
	Whisper(username, text string)
}

// maxMessageLength is Twitch's limit for one chat line
const maxMessageLength = 500

// TwitchChat sends messages, whispers and timeouts over IRC
type TwitchChat struct {
	client ircClient

	ircCommandWarning sync.Once
}

// NewTwitchChat wraps an IRC client
func NewTwitchChat(client ircClient) *TwitchChat {
	return &TwitchChat{client: client}
}

// SendMessage says text in channel
func (c *TwitchChat) SendMessage(ctx context.Context, channel, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text = truncate(text)
	if text == "" {
		return nil
	}

	c.client.Say(channel, text)
	telemetry.ChatSent("message")
	log.WithFields(log.Fields{
		"channel": channel,
		"text":    text,
	}).Debug("Sent chat message")
	return nil
}

// SendWhisper sends text privately to username
func (c *TwitchChat) SendWhisper(ctx context.Context, username, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text = truncate(text)
	if text == "" {
		return nil
	}

	c.warnIRCCommands()
	c.client.Whisper(username, text)
	telemetry.ChatSent("whisper")
	return nil
}

// Timeout silences username in channel for seconds
func (c *TwitchChat) Timeout(ctx context.Context, channel, username string, seconds int, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if seconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", seconds)
	}

	c.warnIRCCommands()
	c.client.Say(channel, strings.TrimSpace(fmt.Sprintf("/timeout %s %d %s", username, seconds, reason)))
	telemetry.ChatSent("timeout")
	log.WithFields(log.Fields{
		"channel":  channel,
		"username": username,
		"seconds":  seconds,
	}).Info("Timed out user")
	return nil
}

// warnIRCCommands notes once that Twitch no longer acts on IRC whispers and
// /timeout. Delivering them needs the Helix API, which chewbot does not call.
func (c *TwitchChat) warnIRCCommands() {
	c.ircCommandWarning.Do(func() {
		log.Warn("Twitch ignores whispers and /timeout sent over IRC; weapon prompts and arena timeouts may not arrive")
	})
}

func truncate(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxMessageLength {
		return text
	}
	return string(runes[:maxMessageLength-3]) + "..."
}
