package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FirstBlood marks the first tracked member of a guild to solve a challenge.
// At most one row exists per (guild, challenge) and it is never updated or
// deleted, even when the solver is later removed from tracking.
type FirstBlood struct {
	bun.BaseModel `bun:"table:first_bloods,alias:fb"`

	ID             int64     `bun:"id,pk,autoincrement"`
	GuildID        string    `bun:"guild_id,notnull,unique:guild_challenge"`
	ChallengeName  string    `bun:"challenge_name,notnull,unique:guild_challenge"`
	SolverUsername string    `bun:"solver_username,notnull"`
	SolvedAt       time.Time `bun:"solved_at,notnull,default:current_timestamp"`
}
