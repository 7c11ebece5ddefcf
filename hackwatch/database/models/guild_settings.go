package models

import (
	"github.com/uptrace/bun"
)

type GuildSettings struct {
	bun.BaseModel `bun:"table:guild_settings,alias:gs"`

	GuildID               string `bun:"guild_id,pk"`
	AnnouncementChannelID string `bun:"announcement_channel_id"`
	CheckIntervalMinutes  int    `bun:"check_interval_minutes,notnull,nullzero,default:10"`
}
