package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assakaf/hackwatch/hackwatch"
	"github.com/assakaf/hackwatch/hackwatch/tracking"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var RemoveUser = discord.SlashCommandCreate{
	Name:        "removeuser",
	Description: "Remove a CryptoHack user from tracking",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "username",
			Description: "The CryptoHack username to stop tracking",
			Required:    true,
		},
	},
}

func RemoveUserHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}
		username := e.SlashCommandInteractionData().String("username")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := b.Orchestrator.UntrackUser(ctx, guildID, username)
		if err != nil {
			if errors.Is(err, tracking.ErrNotTracked) {
				return e.CreateMessage(errorMessage(
					fmt.Sprintf("User `%s` is not being tracked.", username)))
			}
			return e.CreateMessage(errorMessage("Failed to remove user. Please try again later."))
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Description: fmt.Sprintf("✅ Stopped tracking `%s`.", username),
				Color:       utils.SuccessColor,
			}},
		})
	}
}
