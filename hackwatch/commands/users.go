package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/assakaf/hackwatch/hackwatch"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

var Users = discord.SlashCommandCreate{
	Name:        "users",
	Description: "List all tracked CryptoHack users",
}

func UsersHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		tracked, err := b.Store.GetByGuild(ctx, guildID)
		if err != nil {
			return e.CreateMessage(errorMessage("Failed to fetch tracked users. Please try again later."))
		}

		if len(tracked) == 0 {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Description: "No users are being tracked. Use `/adduser` to add someone!",
					Color:       utils.InfoColor,
				}},
			})
		}

		totalPages := int(math.Ceil(float64(len(tracked)) / float64(utils.UsersPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * utils.UsersPerPage
				endIdx := min(startIdx+utils.UsersPerPage, len(tracked))

				var description strings.Builder
				for _, user := range tracked[startIdx:endIdx] {
					description.WriteString(fmt.Sprintf("• **%s** - %d pts\n", user.Username, user.Score))
				}

				embed.SetTitle("📋 Tracked CryptoHack Users").
					SetDescription(description.String()).
					SetColor(utils.InfoColor).
					SetFooterText(fmt.Sprintf("%d users tracked", len(tracked)))
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
