package notify

import (
	"fmt"
	"slices"
	"strings"

	"chewbot/bot/common"
	"chewbot/events"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

var kindTitles = map[string]string{
	"duel":      "⚔️ Duel",
	"bankheist": "🏦 Bank Heist",
	"arena":     "🏟️ Arena",
}

func kindTitle(kind string) string {
	if title, ok := kindTitles[kind]; ok {
		return title
	}
	return kind
}

// buildSettledEmbed summarises a finished event
func buildSettledEmbed(e events.ParticipationSettledEvent) *discordgo.MessageEmbed {
	var fields []*discordgo.MessageEmbedField

	if len(e.Payouts) > 0 {
		names := make([]string, 0, len(e.Payouts))
		for name := range e.Payouts {
			names = append(names, name)
		}
		slices.Sort(names)

		lines := make([]string, len(names))
		for i, name := range names {
			lines[i] = fmt.Sprintf("• %s: **%s chews**", name, common.FormatBalance(e.Payouts[name]))
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Payouts",
			Value: strings.Join(lines, "\n"),
		})
	}

	if len(e.Losers) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Lost",
			Value: strings.Join(e.Losers, ", "),
		})
	}

	color := ColorSuccess
	if len(e.Winners) == 0 {
		color = ColorDanger
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s in #%s", kindTitle(e.Kind), e.Channel),
		Description: e.Summary,
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: e.EventID,
		},
	}
}

// buildCancelledEmbed reports an event that ended with a refund
func buildCancelledEmbed(e events.ParticipationCancelledEvent) *discordgo.MessageEmbed {
	description := "Everyone was refunded."
	if len(e.Refunded) > 0 {
		description = fmt.Sprintf("Refunded: %s", strings.Join(e.Refunded, ", "))
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s in #%s called off (%s)", kindTitle(e.Kind), e.Channel, strings.ReplaceAll(e.Reason, "_", " ")),
		Description: description,
		Color:       ColorWarning,
	}
}

// buildAchievementEmbed announces a milestone
func buildAchievementEmbed(e events.AchievementUnlockedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🏆 Achievement unlocked",
		Description: fmt.Sprintf("**%s** reached %d × %s", e.Username, e.Count, strings.ReplaceAll(string(e.Kind), "_", " ")),
		Color:       ColorPrimary,
	}
}
