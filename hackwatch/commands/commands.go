package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"

	"github.com/assakaf/hackwatch/hackwatch/utils"
)

var Commands = []discord.ApplicationCommandCreate{
	AddUser,
	RemoveUser,
	Users,
	Leaderboard,
	FirstBloods,
	Profile,
	Challenge,
	SetChannel,
	Refresh,
}

// guildIDOf returns the guild the command was invoked in. All commands here
// are guild-scoped; invocations without a guild get a zero ID and false.
func guildIDOf(e *handler.CommandEvent) (snowflake.ID, bool) {
	if e.GuildID() == nil {
		return 0, false
	}
	return *e.GuildID(), true
}

func errorMessage(description string) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "Error",
			Description: description,
			Color:       utils.ErrorColor,
		}},
	}
}

func guildOnlyMessage() discord.MessageCreate {
	return errorMessage("This command can only be used in a server.")
}

func errorUpdate(description string) discord.MessageUpdate {
	return discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title:       "Error",
			Description: description,
			Color:       utils.ErrorColor,
		}},
	}
}
