package notify

import (
	"context"
	"fmt"

	"chewbot/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// embedSender is the part of a discordgo session used to post embeds
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier mirrors event outcomes to a Discord channel
type DiscordNotifier struct {
	session   embedSender
	channelID string
}

// NewDiscordSession creates a bot session for token. Only the REST API is
// used, so the gateway is never opened.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return session, nil
}

// NewDiscordNotifier creates a notifier posting to channelID
func NewDiscordNotifier(session embedSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// Subscribe mirrors settled and cancelled events and achievements from bus
func (n *DiscordNotifier) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(n.handle,
		events.EventTypeParticipationSettled,
		events.EventTypeParticipationCancelled,
		events.EventTypeAchievementUnlocked,
	)
}

func (n *DiscordNotifier) handle(_ context.Context, event events.Event) {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.ParticipationSettledEvent:
		embed = buildSettledEmbed(e)
	case events.ParticipationCancelledEvent:
		embed = buildCancelledEmbed(e)
	case events.AchievementUnlockedEvent:
		embed = buildAchievementEmbed(e)
	default:
		return
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": n.channelID,
			"error":     err,
		}).Error("Failed to mirror event to Discord")
	}
}
