package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assakaf/hackwatch/hackwatch"
	"github.com/assakaf/hackwatch/hackwatch/services"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "Show the server's CryptoHack leaderboard",
}

var medals = []string{"🥇", "🥈", "🥉"}

func LeaderboardHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer message: %w", err)
		}

		// Refreshing fetches every tracked user with the mandatory delay in
		// between, so allow plenty of time.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		entries, report, err := b.Orchestrator.RefreshLeaderboard(ctx, guildID)
		if err != nil {
			_, err = e.UpdateInteractionResponse(errorUpdate("Failed to build the leaderboard. Please try again later."))
			return err
		}

		// Synchronous, same as /refresh: rows must be marked announced
		// before the next cycle can see them.
		if report != nil && len(report.Events) > 0 {
			b.Announcer.Deliver(ctx, report.Events)
		}

		if len(entries) == 0 {
			_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Description: "No users are being tracked. Use `/adduser` to add someone!",
					Color:       utils.InfoColor,
				}},
			})
			return err
		}

		guildName := "Server"
		if guild, ok := e.Guild(); ok {
			guildName = guild.Name
		}

		if b.LeaderboardImages != nil {
			imageData := services.LeaderboardImageData{GuildName: guildName}
			for i, entry := range entries {
				imageData.Entries = append(imageData.Entries, services.LeaderboardImageEntry{
					Rank:     i + 1,
					Username: entry.Username,
					Score:    entry.Score,
					Solved:   entry.Solved,
				})
			}
			if image, imgErr := b.LeaderboardImages.GenerateLeaderboardImage(ctx, imageData); imgErr == nil {
				_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
					Files: []*discord.File{discord.NewFile("leaderboard.png", "", bytes.NewReader(image))},
				})
				return err
			}
		}

		var description strings.Builder
		for i, entry := range entries {
			medal := fmt.Sprintf("**%d.**", i+1)
			if i < len(medals) {
				medal = medals[i]
			}
			description.WriteString(fmt.Sprintf("%s **%s** - %d pts (%d solved)\n",
				medal, entry.Username, entry.Score, entry.Solved))
		}

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       fmt.Sprintf("🏆 %s CryptoHack Leaderboard", guildName),
				Description: description.String(),
				Color:       utils.GoldColor,
				Footer: &discord.EmbedFooter{
					Text:    utils.FooterText,
					IconURL: utils.FooterIconURL,
				},
			}},
		})
		return err
	}
}
