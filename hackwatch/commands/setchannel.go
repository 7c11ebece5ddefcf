package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/assakaf/hackwatch/hackwatch"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
)

var SetChannel = discord.SlashCommandCreate{
	Name:        "setchannel",
	Description: "Set the channel for solve announcements",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionChannel{
			Name:        "channel",
			Description: "The channel for announcements",
			Required:    true,
			ChannelTypes: []discord.ChannelType{
				discord.ChannelTypeGuildText,
			},
		},
	},
	DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionManageChannels),
}

func SetChannelHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}
		channel := e.SlashCommandInteractionData().Channel("channel")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.Store.SetAnnouncementChannel(ctx, guildID, channel.ID); err != nil {
			return e.CreateMessage(errorMessage("Failed to save the announcement channel. Please try again later."))
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Description: fmt.Sprintf("✅ Solve announcements will now be posted in <#%s>", channel.ID),
				Color:       utils.SuccessColor,
			}},
		})
	}
}
