package discord

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/usecases"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// maxChoices is the Discord limit on autocomplete choices.
const maxChoices = 25

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	queue *usecases.QueueService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(queue *usecases.QueueService) *AutocompleteHandler {
	return &AutocompleteHandler{queue: queue}
}

// HandleRemove handles autocomplete for the remove command.
func (h *AutocompleteHandler) HandleRemove(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		slog.Warn("failed to parse guild ID in autocomplete", "error", err, "guildID", i.GuildID)
		return
	}

	var typed string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "position" && opt.Focused {
			typed = fmt.Sprint(opt.Value)
		}
	}

	choices := positionChoices(h.queue.Tracks(guildID), typed)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	}); err != nil {
		slog.Warn("failed to respond to autocomplete", "error", err)
	}
}

// positionChoices lists 1-indexed queue positions whose number or title
// matches what the user has typed so far.
func positionChoices(tracks []*domain.Track, typed string) []*discordgo.ApplicationCommandOptionChoice {
	typed = strings.ToLower(strings.TrimSpace(typed))

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, min(len(tracks), maxChoices))
	for idx, track := range tracks {
		position := idx + 1
		if typed != "" &&
			!strings.HasPrefix(strconv.Itoa(position), typed) &&
			!strings.Contains(strings.ToLower(track.Title), typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%d. %s", position, truncate(track.Title, 90)),
			Value: position,
		})
		if len(choices) == maxChoices {
			break
		}
	}
	return choices
}
