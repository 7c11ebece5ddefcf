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
	"github.com/sahilm/fuzzy"
)

var Challenge = discord.SlashCommandCreate{
	Name:        "challenge",
	Description: "See who solved a specific challenge",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "name",
			Description: "The name of the challenge",
			Required:    true,
		},
	},
}

func ChallengeHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}
		query := e.SlashCommandInteractionData().String("name")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		known, err := b.Store.ChallengeNames(ctx, guildID)
		if err != nil {
			return e.CreateMessage(errorMessage("Failed to look up challenges. Please try again later."))
		}

		challengeName := resolveChallengeName(query, known)
		solvers, err := b.Store.Solvers(ctx, guildID, challengeName)
		if err != nil {
			return e.CreateMessage(errorMessage("Failed to look up solvers. Please try again later."))
		}

		if len(solvers) == 0 {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{{
					Title:       fmt.Sprintf("📝 %s", challengeName),
					Description: "No one from this server has solved this challenge yet.",
					Color:       utils.PurpleColor,
				}},
			})
		}

		category := solvers[0].Category
		points := solvers[0].Points
		totalPages := int(math.Ceil(float64(len(solvers)) / float64(utils.SolversPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * utils.SolversPerPage
				endIdx := min(startIdx+utils.SolversPerPage, len(solvers))

				var list strings.Builder
				for i, solver := range solvers[startIdx:endIdx] {
					badge := ""
					if solver.FirstBlood {
						badge = " 🩸"
					}
					list.WriteString(fmt.Sprintf("**%d.** %s%s - %s\n",
						startIdx+i+1, solver.Username, badge, solver.SolvedDate))
				}

				embed.SetTitle(fmt.Sprintf("📝 %s", challengeName)).
					SetDescription(fmt.Sprintf("%s · %d pts\n\n**Solvers (%d)**\n%s",
						category, points, len(solvers), list.String())).
					SetColor(utils.PurpleColor).
					SetFooterText(utils.FooterText)
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

// resolveChallengeName fuzzy-matches the query against challenge names the
// guild has seen, falling back to the raw query when nothing matches.
func resolveChallengeName(query string, known []string) string {
	if len(known) == 0 {
		return query
	}
	for _, name := range known {
		if strings.EqualFold(name, query) {
			return name
		}
	}
	matches := fuzzy.Find(query, known)
	if len(matches) == 0 {
		return query
	}
	return matches[0].Str
}
