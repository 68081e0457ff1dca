package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the voice player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "Join a voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Voice channel to join (defaults to your current channel)",
					Required:    false,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildVoice,
						discordgo.ChannelTypeGuildStageVoice,
					},
				},
			},
		},
		{
			Name:        "leave",
			Description: "Leave the voice channel and clear the queue",
		},
		{
			Name:        "play",
			Description: "Play or queue a URL, playlist or search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "URL or search term",
					Required:    true,
				},
			},
		},
		{
			Name:        "queue",
			Description: "Show the queue",
		},
		{
			Name:        "skip",
			Description: "Skip the current item",
		},
		{
			Name:        "clear",
			Description: "Clear the queue",
		},
		{
			Name:        "remove",
			Description: "Remove an item from the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionInteger,
					Name:         "position",
					Description:  "Position in the queue (1-indexed, as shown in /queue)",
					Required:     true,
					MinValue:     floatPtr(1),
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "shuffle",
			Description: "Shuffle the queue",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "stop",
			Description: "Stop playback and keep the queue",
		},
		seekCommand("seek"),
		seekCommand("scrub"),
		seekCommand("jump"),
		{
			Name:        "say",
			Description: "Speak text in the voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Text to speak",
					Required:    true,
					MaxLength:   500,
				},
			},
		},
		{
			Name:        "nowplaying",
			Description: "Show the current item and position",
		},
		{
			Name:        "musicpanel",
			Description: "Post a playback control panel",
		},
	}
}

func seekCommand(name string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: "Seek within the current item",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "position",
				Description: "90, 1:30, 1:02:03, +10, -15 or 50%",
				Required:    true,
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
