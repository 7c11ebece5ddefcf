package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TrackedUser is one CryptoHack username tracked by one guild. The same
// username may be tracked by several guilds, each with its own solve
// baseline and first-blood history.
type TrackedUser struct {
	bun.BaseModel `bun:"table:tracked_users,alias:tu"`

	ID            int64     `bun:"id,pk,autoincrement"`
	GuildID       string    `bun:"guild_id,notnull,unique:guild_username"`
	Username      string    `bun:"username,notnull,unique:guild_username"`
	DiscordUserID string    `bun:"discord_user_id"`
	Score         int       `bun:"score,notnull,default:0"`
	LastCheckedAt time.Time `bun:"last_checked_at,nullzero"`
	AddedAt       time.Time `bun:"added_at,notnull,default:current_timestamp"`
}
