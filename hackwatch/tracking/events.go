package tracking

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// AnnouncementEvent is one solve ready for delivery. Events are only emitted
// after the underlying solve row is durably persisted; delivery marks the
// row announced so a crash in between re-emits instead of duplicating.
type AnnouncementEvent struct {
	GuildID       snowflake.ID
	Username      string
	ChallengeName string
	Category      string
	Points        int
	Score         int
	IsFirstBlood  bool
}

// UserFailure records one tracked user whose fetch or persist failed during
// a cycle. Failures never abort the cycle; the user is retried next cycle.
type UserFailure struct {
	GuildID  snowflake.ID
	Username string
	Err      error
}

// CycleReport summarizes one reconciliation cycle.
type CycleReport struct {
	StartedAt    time.Time
	Duration     time.Duration
	UsersChecked int
	Failures     []UserFailure
	Events       []AnnouncementEvent
}
