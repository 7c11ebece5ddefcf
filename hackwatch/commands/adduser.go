package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assakaf/hackwatch/hackwatch"
	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/tracking"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var AddUser = discord.SlashCommandCreate{
	Name:        "adduser",
	Description: "Add a CryptoHack user to track",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "username",
			Description: "The CryptoHack username to track",
			Required:    true,
		},
	},
}

func AddUserHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID, ok := guildIDOf(e)
		if !ok {
			return e.CreateMessage(guildOnlyMessage())
		}
		username := e.SlashCommandInteractionData().String("username")

		if err := e.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer message: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		profile, err := b.Orchestrator.TrackUser(ctx, guildID, username, e.User().ID.String())
		if err != nil {
			switch {
			case errors.Is(err, cryptohack.ErrUserNotFound):
				suggestions := searchSuggestions(ctx, b, username)
				_, err = e.UpdateInteractionResponse(errorUpdate(
					fmt.Sprintf("User `%s` not found on CryptoHack.%s", username, suggestions)))
			case errors.Is(err, tracking.ErrAlreadyTracked):
				_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
					Embeds: &[]discord.Embed{{
						Description: fmt.Sprintf("ℹ️ User `%s` is already being tracked.", strings.ToLower(username)),
						Color:       utils.InfoColor,
					}},
				})
			default:
				_, err = e.UpdateInteractionResponse(errorUpdate(
					fmt.Sprintf("Error connecting to CryptoHack: %s", err)))
			}
			return err
		}

		// Fresh tracking starts from the next cycle; drop any cached profile
		// fetched during verification so the baseline is not reused stale.
		b.Fetcher.Invalidate(strings.ToLower(username))

		content := fmt.Sprintf("✅ Now tracking **%s**!", profile.Username)
		embed := userEmbed(profile)
		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Content: &content,
			Embeds:  &[]discord.Embed{embed},
		})
		return err
	}
}

// searchSuggestions looks up similar usernames for a not-found error.
func searchSuggestions(ctx context.Context, b *hackwatch.Bot, term string) string {
	matches, err := b.Fetcher.SearchUsers(ctx, term)
	if err != nil || len(matches) == 0 {
		return ""
	}
	if len(matches) > 5 {
		matches = matches[:5]
	}
	return fmt.Sprintf("\nDid you mean: `%s`?", strings.Join(matches, "`, `"))
}
