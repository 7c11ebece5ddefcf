package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
)

// Attributor decides per-guild first bloods. A challenge has at most one
// first blood per guild, recorded once and never reassigned. When several
// tracked users solve the same challenge within one cycle, the user
// processed first (ascending username, the orchestrator's order) wins.
type Attributor struct {
	store Store
}

func NewAttributor(store Store) *Attributor {
	return &Attributor{store: store}
}

// Attribute checks whether solver is the first tracked member of the guild
// to solve the challenge and records the first blood if so. Returns nil
// when another member already holds it. An existing record naming the
// solver is handed back again so a solve insert retried after a store
// failure still carries the marker.
func (a *Attributor) Attribute(ctx context.Context, guildID snowflake.ID, challengeName, solver string) (*models.FirstBlood, error) {
	existing, err := a.store.GetFirstBlood(ctx, guildID, challengeName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up first blood: %w", err)
	}
	if existing != nil {
		// Attribute only runs for solves missing from the stored set, so
		// a record naming this solver means a previous cycle failed
		// between recording it and persisting the solve.
		if existing.SolverUsername == solver {
			return existing, nil
		}
		return nil, nil
	}

	// No record yet. A member seeded with this solve before first bloods
	// were tracked still blocks attribution.
	solvers, err := a.store.Solvers(ctx, guildID, challengeName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up challenge solvers: %w", err)
	}
	for _, s := range solvers {
		if s.Username != solver {
			return nil, nil
		}
	}

	fb := &models.FirstBlood{
		GuildID:        guildID.String(),
		ChallengeName:  challengeName,
		SolverUsername: solver,
		SolvedAt:       time.Now(),
	}
	created, err := a.store.PutFirstBlood(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("failed to record first blood: %w", err)
	}
	if !created {
		// Lost the race to an earlier insert; the record stands.
		return nil, nil
	}

	slog.Info("First blood recorded",
		slog.String("type", "sync"),
		slog.String("guild_id", guildID.String()),
		slog.String("challenge", challengeName),
		slog.String("username", solver))

	return fb, nil
}
