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

var FirstBloods = discord.SlashCommandCreate{
	Name:        "firstbloods",
	Description: "Show the server's first blood history",
}

func FirstBloodsHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		firstBloods, err := b.Store.ListFirstBloods(ctx, guildID)
		if err != nil {
			return e.CreateMessage(errorMessage("Failed to fetch first bloods. Please try again later."))
		}

		if len(firstBloods) == 0 {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Description: "No first bloods yet. The next new solve claims one!",
					Color:       utils.InfoColor,
				}},
			})
		}

		totalPages := int(math.Ceil(float64(len(firstBloods)) / float64(utils.SolversPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * utils.SolversPerPage
				endIdx := min(startIdx+utils.SolversPerPage, len(firstBloods))

				var list strings.Builder
				for _, fb := range firstBloods[startIdx:endIdx] {
					list.WriteString(fmt.Sprintf("🩸 **%s** - %s (<t:%d:d>)\n",
						fb.ChallengeName, fb.SolverUsername, fb.SolvedAt.Unix()))
				}

				embed.SetTitle("🩸 First Bloods").
					SetDescription(list.String()).
					SetColor(utils.FirstBloodColor).
					SetFooterText(fmt.Sprintf("%d first bloods", len(firstBloods)))
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
