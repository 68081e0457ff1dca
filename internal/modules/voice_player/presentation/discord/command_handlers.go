package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/bot"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/usecases"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	voiceChannel *usecases.VoiceChannelService
	playback     *usecases.PlaybackService
	queue        *usecases.QueueService
	seek         *usecases.SeekService
	speech       *usecases.SpeechService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	voiceChannel *usecases.VoiceChannelService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	seek *usecases.SeekService,
	speech *usecases.SpeechService,
) *CommandHandlers {
	return &CommandHandlers{
		voiceChannel: voiceChannel,
		playback:     playback,
		queue:        queue,
		seek:         seek,
		speech:       speech,
	}
}

// invocation holds the IDs every handler needs from an interaction.
type invocation struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func parseInvocation(i *discordgo.InteractionCreate) (invocation, string) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return invocation{}, "Invalid guild"
	}

	if i.Member == nil || i.Member.User == nil {
		return invocation{}, "Invalid user"
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return invocation{}, "Invalid user"
	}

	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return invocation{}, "Invalid notification channel"
	}

	return invocation{guildID: guildID, userID: userID, channelID: channelID}, ""
}

func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// HandleJoin handles the /join command.
func (h *CommandHandlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name != "channel" {
			continue
		}
		id, err := snowflake.Parse(fmt.Sprint(opt.Value))
		if err != nil {
			return respondError(r, "Invalid voice channel")
		}
		voiceChannelID = id
	}

	if err := deferResponse(r); err != nil {
		return err
	}

	output, err := h.voiceChannel.Join(context.Background(), usecases.JoinInput{
		GuildID:               inv.guildID,
		UserID:                inv.userID,
		NotificationChannelID: inv.channelID,
		VoiceChannelID:        voiceChannelID,
	})
	if err != nil {
		return editError(r, errorMessage(err))
	}

	if output.Moved {
		return editSuccess(r, fmt.Sprintf("Moved to <#%d>.", output.VoiceChannelID))
	}
	return editSuccess(r, fmt.Sprintf("Connected to <#%d>.", output.VoiceChannelID))
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := h.voiceChannel.Leave(context.Background(), usecases.LeaveInput{
		GuildID: inv.guildID,
	}); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Disconnected and cleared the queue.")
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	query := stringOption(i, "query")
	if strings.TrimSpace(query) == "" {
		return respondError(r, usecases.ErrEmptyQuery.Error())
	}

	if err := deferResponse(r); err != nil {
		return err
	}

	output, err := h.queue.Play(context.Background(), usecases.PlayInput{
		GuildID:               inv.guildID,
		UserID:                inv.userID,
		NotificationChannelID: inv.channelID,
		Query:                 query,
	})
	if err != nil {
		return editError(r, errorMessage(err))
	}

	return editSuccess(r, describePlay(output))
}

func describePlay(output *usecases.PlayOutput) string {
	if len(output.Enqueued) > 1 {
		description := fmt.Sprintf("Added **%d items** to the queue.", len(output.Enqueued))
		if output.Started != nil {
			description += fmt.Sprintf("\nNow playing %s.", trackLink(output.Started))
		}
		return description
	}

	track := output.Enqueued[0]
	if output.Started == track {
		return fmt.Sprintf("Now playing %s.", trackLink(track))
	}
	return fmt.Sprintf(
		"Added %s to the queue at position %d.",
		trackLink(track),
		output.QueueLength,
	)
}

func trackLink(t *domain.Track) string {
	if t.Reference != "" {
		return fmt.Sprintf("[%s](%s)", t.Title, t.Reference)
	}
	return fmt.Sprintf("**%s**", t.Title)
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	return respondEmbed(r, h.queueEmbed(inv.guildID))
}

func (h *CommandHandlers) queueEmbed(guildID snowflake.ID) *discordgo.MessageEmbed {
	var sb strings.Builder

	if np, err := h.playback.NowPlaying(guildID); err == nil {
		fmt.Fprintf(&sb, "**Now playing:** %s\n\n", nowPlayingLine(np))
	}

	output, err := h.queue.List(guildID)
	if err != nil {
		if sb.Len() == 0 {
			return &discordgo.MessageEmbed{
				Description: usecases.ErrQueueEmpty.Error(),
				Color:       colorError,
			}
		}
		sb.WriteString("The queue is empty.")
	} else {
		for idx, track := range output.Tracks {
			fmt.Fprintf(&sb, "`%d.` %s `%s`\n", idx+1, trackLink(track), track.FormattedDuration())
		}
		if rest := output.Total - len(output.Tracks); rest > 0 {
			fmt.Fprintf(&sb, "...and %d more", rest)
		}
	}

	return &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: sb.String(),
		Color:       colorSuccess,
	}
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := deferResponse(r); err != nil {
		return err
	}

	output, err := h.playback.Skip(context.Background(), usecases.SkipInput{
		GuildID:               inv.guildID,
		NotificationChannelID: inv.channelID,
	})
	if err != nil {
		return editError(r, errorMessage(err))
	}

	// The next track's "Now Playing" is posted by the engine.
	if output.SkippedTitle == "" {
		return editSuccess(r, "Skipped.")
	}
	return editSuccess(r, fmt.Sprintf("Skipped **%s**.", output.SkippedTitle))
}

// HandleClear handles the /clear command.
func (h *CommandHandlers) HandleClear(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	n, err := h.queue.Clear(inv.guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Cleared %d items from the queue.", n))
}

// HandleRemove handles the /remove command.
func (h *CommandHandlers) HandleRemove(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	var position int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "position" {
			position = int(opt.IntValue())
		}
	}

	removed, err := h.queue.Remove(usecases.QueueRemoveInput{
		GuildID:  inv.guildID,
		Position: position,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Removed %s from the queue.", trackLink(removed)))
}

// HandleShuffle handles the /shuffle command.
func (h *CommandHandlers) HandleShuffle(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	n, err := h.queue.Shuffle(inv.guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Shuffled %d items.", n))
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := h.playback.Pause(context.Background(), usecases.PauseInput{
		GuildID:               inv.guildID,
		NotificationChannelID: inv.channelID,
	}); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := deferResponse(r); err != nil {
		return err
	}

	output, err := h.playback.Resume(context.Background(), usecases.ResumeInput{
		GuildID:               inv.guildID,
		UserID:                inv.userID,
		NotificationChannelID: inv.channelID,
	})
	if err != nil {
		return editError(r, errorMessage(err))
	}

	if output.Retried {
		return editSuccess(r, describeApply("Restarted", output.Apply))
	}
	return editSuccess(r, "Resumed playback.")
}

func describeApply(verb string, out *usecases.ApplyOutput) string {
	if out.Degraded {
		return fmt.Sprintf(
			"%s **%s** from the beginning; this source cannot start mid-stream.",
			verb,
			out.Title,
		)
	}
	return fmt.Sprintf("%s **%s** at `%s`.", verb, out.Title, domain.FormatTimestamp(out.Offset))
}

// HandleStop handles the /stop command.
// The queue is kept; /play or /skip starts the next item.
func (h *CommandHandlers) HandleStop(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := h.playback.Stop(context.Background(), usecases.StopInput{
		GuildID: inv.guildID,
	}); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Stopped playback.")
}

// HandleSeek handles the /seek, /scrub and /jump commands.
func (h *CommandHandlers) HandleSeek(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := deferResponse(r); err != nil {
		return err
	}

	return h.seekTo(r, inv, stringOption(i, "position"))
}

func (h *CommandHandlers) seekTo(r bot.Responder, inv invocation, position string) error {
	output, err := h.seek.Seek(context.Background(), usecases.SeekInput{
		GuildID:               inv.guildID,
		UserID:                inv.userID,
		NotificationChannelID: inv.channelID,
		Position:              position,
	})
	if err != nil {
		return editError(r, errorMessage(err))
	}

	if output.AlreadyNear {
		return editSuccess(r, fmt.Sprintf(
			"Already at `%s`.",
			domain.FormatTimestamp(output.Target),
		))
	}
	return editSuccess(r, describeApply("Seeked", output.Apply))
}

// HandleSay handles the /say command.
func (h *CommandHandlers) HandleSay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	text := stringOption(i, "text")
	if strings.TrimSpace(text) == "" {
		return respondError(r, usecases.ErrEmptySpeech.Error())
	}

	if err := deferResponse(r); err != nil {
		return err
	}

	output, err := h.speech.Say(context.Background(), usecases.SayInput{
		GuildID:               inv.guildID,
		UserID:                inv.userID,
		NotificationChannelID: inv.channelID,
		Text:                  text,
	})
	if err != nil {
		return editError(r, errorMessage(err))
	}

	return editEmbed(r, sayEmbed(output))
}

func sayEmbed(output *usecases.SayOutput) *discordgo.MessageEmbed {
	var lines []string
	color := colorSuccess

	if output.SpeechErr != nil {
		lines = append(lines, fmt.Sprintf("Speech failed: %v", output.SpeechErr))
		color = colorWarning
	} else {
		lines = append(lines, "Said it.")
	}

	switch {
	case output.Resumed:
		lines = append(lines, describeApply("Resumed", output.Apply))
		if output.Apply.Degraded {
			color = colorWarning
		}
	case output.Interrupted && output.ResumeErr != nil:
		lines = append(lines, fmt.Sprintf(
			"Could not resume the interrupted item: %v. Use /resume to retry.",
			output.ResumeErr,
		))
		color = colorWarning
	}

	if output.Warning != "" {
		lines = append(lines, output.Warning)
		color = colorWarning
	}

	return &discordgo.MessageEmbed{
		Description: strings.Join(lines, "\n"),
		Color:       color,
	}
}

// HandleNowPlaying handles the /nowplaying command.
func (h *CommandHandlers) HandleNowPlaying(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	np, err := h.playback.NowPlaying(inv.guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: nowPlayingLine(np),
		Color:       colorSuccess,
	}
	if np.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: np.ArtworkURL}
	}
	if np.IsStalled {
		embed.Color = colorWarning
	}
	return respondEmbed(r, embed)
}

// nowPlayingLine renders "title `elapsed / total`" plus the playback state.
func nowPlayingLine(np *usecases.NowPlayingOutput) string {
	title := fmt.Sprintf("**%s**", np.Title)
	if np.Reference != "" {
		title = fmt.Sprintf("[%s](%s)", np.Title, np.Reference)
	}

	total := "?"
	switch {
	case np.IsLive:
		total = "LIVE"
	case np.Duration > 0:
		total = domain.FormatTimestamp(np.Duration)
	}

	line := fmt.Sprintf("%s `%s / %s`", title, domain.FormatTimestamp(np.Elapsed), total)
	switch {
	case np.IsStalled:
		line += " (stalled, use /resume to retry)"
	case np.IsPaused:
		line += " (paused)"
	}
	return line
}

// errorMessage returns the text shown to users for a use case error.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, usecases.ErrUserNotInVoice):
		return usecases.ErrUserNotInVoice.Error()
	default:
		return err.Error()
	}
}
