package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Solve is the persisted record of one user having solved one challenge,
// as observed by one guild. Rows are only ever inserted, never deleted:
// a shrinking solved set from the API is treated as a stale read.
type Solve struct {
	bun.BaseModel `bun:"table:solves,alias:s"`

	ID            int64     `bun:"id,pk,autoincrement"`
	GuildID       string    `bun:"guild_id,notnull,unique:guild_user_challenge"`
	Username      string    `bun:"username,notnull,unique:guild_user_challenge"`
	ChallengeName string    `bun:"challenge_name,notnull,unique:guild_user_challenge"`
	Category      string    `bun:"category"`
	Points        int       `bun:"points,notnull,default:0"`
	SolvedDate    string    `bun:"solved_date"`
	FirstBlood    bool      `bun:"first_blood,notnull,default:false"`
	Announced     bool      `bun:"announced,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
