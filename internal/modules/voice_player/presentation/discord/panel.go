package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/bot"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/usecases"
)

// Custom IDs of the control panel buttons.
const (
	controlsPrefix  = "controls:"
	controlRewind   = controlsPrefix + "rewind"
	controlToggle   = controlsPrefix + "toggle"
	controlStop     = controlsPrefix + "stop"
	controlSkip     = controlsPrefix + "skip"
	controlForward  = controlsPrefix + "forward"
	controlRefresh  = controlsPrefix + "refresh"
	controlQueue    = controlsPrefix + "queue"
	panelSeekAmount = "10"
)

// IsControlComponent reports whether customID belongs to the control panel.
func IsControlComponent(customID string) bool {
	return strings.HasPrefix(customID, controlsPrefix)
}

// HandleMusicPanel handles the /musicpanel command.
func (h *CommandHandlers) HandleMusicPanel(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{h.panelEmbed(inv.guildID)},
			Components: panelComponents(h.playback.IsPaused(inv.guildID)),
		},
	})
}

// HandleComponent handles a press of a control panel button.
func (h *CommandHandlers) HandleComponent(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondEphemeral(r, msg, colorError)
	}

	ctx := context.Background()
	customID := i.MessageComponentData().CustomID

	switch customID {
	case controlRewind, controlForward:
		sign := "-"
		if customID == controlForward {
			sign = "+"
		}
		if err := deferEphemeral(r); err != nil {
			return err
		}
		return h.seekTo(r, inv, sign+panelSeekAmount)

	case controlToggle:
		var err error
		if h.playback.IsPaused(inv.guildID) {
			_, err = h.playback.Resume(ctx, usecases.ResumeInput{
				GuildID:               inv.guildID,
				UserID:                inv.userID,
				NotificationChannelID: inv.channelID,
			})
		} else {
			err = h.playback.Pause(ctx, usecases.PauseInput{
				GuildID:               inv.guildID,
				NotificationChannelID: inv.channelID,
			})
		}
		if err != nil {
			return respondEphemeral(r, errorMessage(err), colorError)
		}
		return h.updatePanel(r, inv.guildID)

	case controlStop:
		if err := h.playback.Stop(ctx, usecases.StopInput{GuildID: inv.guildID}); err != nil {
			return respondEphemeral(r, errorMessage(err), colorError)
		}
		return h.updatePanel(r, inv.guildID)

	case controlSkip:
		if err := r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			return err
		}
		if _, err := h.playback.Skip(ctx, usecases.SkipInput{
			GuildID:               inv.guildID,
			NotificationChannelID: inv.channelID,
		}); err != nil {
			slog.Debug("skip from panel failed", "guild", inv.guildID, "error", err)
		}
		embeds := []*discordgo.MessageEmbed{h.panelEmbed(inv.guildID)}
		components := panelComponents(h.playback.IsPaused(inv.guildID))
		return r.Edit(&discordgo.WebhookEdit{Embeds: &embeds, Components: &components})

	case controlRefresh:
		return h.updatePanel(r, inv.guildID)

	case controlQueue:
		return r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{h.queueEmbed(inv.guildID)},
				Flags:  discordgo.MessageFlagsEphemeral,
			},
		})
	}

	return respondEphemeral(r, "Unknown control.", colorError)
}

func (h *CommandHandlers) updatePanel(r bot.Responder, guildID snowflake.ID) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{h.panelEmbed(guildID)},
			Components: panelComponents(h.playback.IsPaused(guildID)),
		},
	})
}

func (h *CommandHandlers) panelEmbed(guildID snowflake.ID) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Music Panel",
		Color: colorSuccess,
	}

	np, err := h.playback.NowPlaying(guildID)
	if err != nil {
		embed.Description = "Nothing is playing."
		return embed
	}

	embed.Description = nowPlayingLine(np)
	if np.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: np.ArtworkURL}
	}
	if np.QueueLength > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d more in queue", np.QueueLength),
		}
	}
	if np.IsStalled {
		embed.Color = colorWarning
	}
	return embed
}

func panelComponents(paused bool) []discordgo.MessageComponent {
	toggleLabel := "Pause"
	if paused {
		toggleLabel = "Resume"
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "-10s", Style: discordgo.SecondaryButton, CustomID: controlRewind},
				discordgo.Button{Label: toggleLabel, Style: discordgo.PrimaryButton, CustomID: controlToggle},
				discordgo.Button{Label: "Stop", Style: discordgo.DangerButton, CustomID: controlStop},
				discordgo.Button{Label: "Skip", Style: discordgo.SecondaryButton, CustomID: controlSkip},
				discordgo.Button{Label: "+10s", Style: discordgo.SecondaryButton, CustomID: controlForward},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Refresh", Style: discordgo.SecondaryButton, CustomID: controlRefresh},
				discordgo.Button{Label: "Queue", Style: discordgo.SecondaryButton, CustomID: controlQueue},
			},
		},
	}
}
