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
	"github.com/disgoorg/json"
)

var Refresh = discord.SlashCommandCreate{
	Name:        "refresh",
	Description: "Manually check for new solves",
	DefaultMemberPermissions: json.NewNullablePtr(
		discord.PermissionManageGuild,
	),
}

func RefreshHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer message: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		report, err := b.Orchestrator.RunGuild(ctx, guildID)
		if err != nil {
			if errors.Is(err, tracking.ErrCycleInProgress) {
				_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
					Embeds: &[]discord.Embed{{
						Description: "ℹ️ A check is already running. Try again in a moment.",
						Color:       utils.InfoColor,
					}},
				})
				return err
			}
			_, err = e.UpdateInteractionResponse(errorUpdate("Failed to check for new solves. Please try again later."))
			return err
		}

		// Deliver before responding; async delivery would let the periodic
		// cycle re-collect the still-unannounced rows and post duplicates.
		if len(report.Events) > 0 {
			b.Announcer.Deliver(ctx, report.Events)
		}

		description := fmt.Sprintf("Checked %d users: %d new solve(s)",
			report.UsersChecked, len(report.Events))
		if len(report.Failures) > 0 {
			description += fmt.Sprintf(", %d fetch failure(s)", len(report.Failures))
		}
		if len(report.Events) == 0 && len(report.Failures) == 0 {
			description = fmt.Sprintf("Checked %d users: no new solves found.", report.UsersChecked)
		}

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "🔄 Refresh complete",
				Description: description,
				Color:       utils.SuccessColor,
			}},
		})
		return err
	}
}
