package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/voicebot/internal/bot"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorWarning = 0xF1C40F
)

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondSuccess(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: message,
		Color:       colorSuccess,
	})
}

func respondError(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: message,
		Color:       colorError,
	})
}

// deferResponse acknowledges an interaction whose work may outlast the
// response deadline. The answer is sent later through editEmbed.
func deferResponse(r bot.Responder) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func editEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	embeds := []*discordgo.MessageEmbed{embed}
	return r.Edit(&discordgo.WebhookEdit{Embeds: &embeds})
}

func editSuccess(r bot.Responder, message string) error {
	return editEmbed(r, &discordgo.MessageEmbed{
		Description: message,
		Color:       colorSuccess,
	})
}

func editError(r bot.Responder, message string) error {
	return editEmbed(r, &discordgo.MessageEmbed{
		Description: message,
		Color:       colorError,
	})
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func respondEphemeral(r bot.Responder, message string, color int) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{Description: message, Color: color},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// deferEphemeral is deferResponse for answers only the presser sees.
func deferEphemeral(r bot.Responder) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}
