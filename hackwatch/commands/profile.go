package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assakaf/hackwatch/hackwatch"
	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Profile = discord.SlashCommandCreate{
	Name:        "profile",
	Description: "Show a CryptoHack user's profile",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "username",
			Description: "The CryptoHack username to look up",
			Required:    true,
		},
	},
}

func ProfileHandler(b *hackwatch.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		username := e.SlashCommandInteractionData().String("username")

		if err := e.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer message: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		profile, err := b.Fetcher.FetchProfile(ctx, username)
		if err != nil {
			if errors.Is(err, cryptohack.ErrUserNotFound) {
				suggestions := searchSuggestions(ctx, b, username)
				_, err = e.UpdateInteractionResponse(errorUpdate(
					fmt.Sprintf("User `%s` not found on CryptoHack.%s", username, suggestions)))
				return err
			}
			_, err = e.UpdateInteractionResponse(errorUpdate(fmt.Sprintf("Error: %s", err)))
			return err
		}

		embed := userEmbed(profile)
		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{embed},
		})
		return err
	}
}

func userEmbed(profile *cryptohack.Profile) discord.Embed {
	embed := discord.Embed{
		Title: fmt.Sprintf("🔐 %s", profile.Username),
		URL:   profile.ProfileURL(),
		Color: utils.InfoColor,
		Fields: []discord.EmbedField{
			{Name: "🏆 Score", Value: fmt.Sprintf("%d", profile.Score), Inline: boolPtr(true)},
			{Name: "📊 Rank", Value: fmt.Sprintf("#%d", profile.Rank), Inline: boolPtr(true)},
			{Name: "⭐ Level", Value: fmt.Sprintf("%d", profile.Level), Inline: boolPtr(true)},
			{Name: "🩸 First Bloods", Value: fmt.Sprintf("%d", profile.FirstBloods), Inline: boolPtr(true)},
			{Name: "✅ Challenges Solved", Value: fmt.Sprintf("%d", len(profile.SolvedChallenges)), Inline: boolPtr(true)},
			{Name: "📅 Joined", Value: profile.Joined, Inline: boolPtr(true)},
		},
		Footer: &discord.EmbedFooter{
			Text:    utils.FooterText,
			IconURL: utils.FooterIconURL,
		},
	}
	if profile.Country != "" {
		embed.Description = fmt.Sprintf(":flag_%s:", profile.Country)
	}
	return embed
}

func boolPtr(b bool) *bool {
	return &b
}
