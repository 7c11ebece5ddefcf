// Package announce delivers announcement events produced by the tracking
// core to Discord channels.
package announce

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/assakaf/hackwatch/hackwatch/services"
	"github.com/assakaf/hackwatch/hackwatch/tracking"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// FallbackChannelName is used when no announcement channel is configured.
const FallbackChannelName = "cryptohack"

// Store is the persistence surface delivery needs: channel settings plus
// the announced flag that makes delivery exactly-once across restarts.
type Store interface {
	GetSettings(ctx context.Context, guildID snowflake.ID) (*models.GuildSettings, error)
	MarkAnnounced(ctx context.Context, guildID snowflake.ID, username, challengeName string) error
}

type Announcer struct {
	client bot.Client
	store  Store
	images *services.SolveImageService
	spaces *services.SpacesService
}

// New creates an Announcer. images and spaces may be nil; delivery then
// falls back to plain embeds without archiving.
func New(client bot.Client, store Store, images *services.SolveImageService, spaces *services.SpacesService) *Announcer {
	return &Announcer{
		client: client,
		store:  store,
		images: images,
		spaces: spaces,
	}
}

// Deliver posts each event to its guild's announcement channel and marks
// the underlying solve announced. Events whose channel cannot be resolved
// are marked announced anyway so they are not retried every cycle.
func (a *Announcer) Deliver(ctx context.Context, events []tracking.AnnouncementEvent) {
	channels := make(map[snowflake.ID]snowflake.ID)

	for _, event := range events {
		channelID, ok := channels[event.GuildID]
		if !ok {
			channelID = a.resolveChannel(ctx, event.GuildID)
			channels[event.GuildID] = channelID
		}

		if channelID == 0 {
			slog.Warn("No announcement channel resolvable, dropping announcement",
				slog.String("type", "sync"),
				slog.String("guild_id", event.GuildID.String()),
				slog.String("username", event.Username),
				slog.String("challenge", event.ChallengeName))
			a.markAnnounced(ctx, event)
			continue
		}

		a.send(ctx, channelID, event)
		a.markAnnounced(ctx, event)
	}
}

// resolveChannel picks the announcement channel for a guild: explicit
// setting, then a text channel named after FallbackChannelName, then the
// guild's system channel. Returns 0 when nothing resolves.
func (a *Announcer) resolveChannel(ctx context.Context, guildID snowflake.ID) snowflake.ID {
	settings, err := a.store.GetSettings(ctx, guildID)
	if err == nil && settings != nil && settings.AnnouncementChannelID != "" {
		if id, err := snowflake.Parse(settings.AnnouncementChannelID); err == nil {
			return id
		}
	}

	channels, err := a.client.Rest().GetGuildChannels(guildID)
	if err == nil {
		for _, channel := range channels {
			if channel.Type() == discord.ChannelTypeGuildText && channel.Name() == FallbackChannelName {
				return channel.ID()
			}
		}
	}

	guild, err := a.client.Rest().GetGuild(guildID, false)
	if err == nil && guild.SystemChannelID != nil {
		return *guild.SystemChannelID
	}

	return 0
}

func (a *Announcer) send(ctx context.Context, channelID snowflake.ID, event tracking.AnnouncementEvent) {
	message := discord.MessageCreate{
		Embeds: []discord.Embed{a.buildEmbed(event)},
	}

	if a.images != nil {
		image, err := a.images.GenerateSolveImage(ctx, services.SolveImageData{
			Username:      event.Username,
			Score:         event.Score,
			ChallengeName: event.ChallengeName,
			Category:      event.Category,
			Points:        event.Points,
			IsFirstBlood:  event.IsFirstBlood,
		})
		if err == nil {
			message = discord.MessageCreate{
				Files: []*discord.File{discord.NewFile("solve.png", "", bytes.NewReader(image))},
			}
			a.archive(ctx, event, image)
		}
	}

	if _, err := a.client.Rest().CreateMessage(channelID, message); err != nil {
		slog.Error("Failed to deliver announcement",
			slog.String("type", "sync"),
			slog.String("guild_id", event.GuildID.String()),
			slog.String("channel_id", channelID.String()),
			slog.String("challenge", event.ChallengeName),
			slog.Any("error", err))
	}
}

func (a *Announcer) buildEmbed(event tracking.AnnouncementEvent) discord.Embed {
	var title, description string
	var color int
	if event.IsFirstBlood {
		title = "🩸 First Blood!"
		color = utils.FirstBloodColor
		description = fmt.Sprintf("**%s** is the first in the server to solve **%s**!",
			event.Username, event.ChallengeName)
	} else {
		title = "🎉 Challenge Solved!"
		color = utils.SuccessColor
		description = fmt.Sprintf("**%s** solved **%s**!", event.Username, event.ChallengeName)
	}

	now := time.Now()
	return discord.Embed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields: []discord.EmbedField{
			{Name: "Category", Value: event.Category, Inline: boolPtr(true)},
			{Name: "Points", Value: fmt.Sprintf("%d", event.Points), Inline: boolPtr(true)},
		},
		Footer: &discord.EmbedFooter{
			Text:    utils.FooterText,
			IconURL: utils.FooterIconURL,
		},
		Timestamp: &now,
	}
}

// archive keeps a copy of the rendered card in Spaces. Best effort: a
// failed upload never blocks delivery.
func (a *Announcer) archive(ctx context.Context, event tracking.AnnouncementEvent, image []byte) {
	if a.spaces == nil {
		return
	}
	if _, err := a.spaces.ArchiveSolveImage(ctx, event.GuildID.String(), event.Username, event.ChallengeName, image); err != nil {
		slog.Warn("Failed to archive solve image",
			slog.String("type", "sync"),
			slog.String("challenge", event.ChallengeName),
			slog.Any("error", err))
	}
}

func (a *Announcer) markAnnounced(ctx context.Context, event tracking.AnnouncementEvent) {
	if err := a.store.MarkAnnounced(ctx, event.GuildID, event.Username, event.ChallengeName); err != nil {
		slog.Error("Failed to mark solve announced",
			slog.String("type", "db"),
			slog.String("guild_id", event.GuildID.String()),
			slog.String("username", event.Username),
			slog.String("challenge", event.ChallengeName),
			slog.Any("error", err))
	}
}

func boolPtr(b bool) *bool {
	return &b
}
