// Package tracking implements the reconciliation core: diffing fetched
// CryptoHack profiles against persisted state, attributing per-guild first
// bloods and emitting announcement events.
package tracking

import (
	"context"
	"errors"

	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrCycleInProgress is returned when a reconciliation cycle is requested
	// while another one is still running. The new request is skipped, never
	// run concurrently.
	ErrCycleInProgress = errors.New("tracking: reconciliation cycle already in progress")

	// ErrAlreadyTracked is returned by TrackUser for a (guild, username)
	// pair that is already tracked.
	ErrAlreadyTracked = errors.New("tracking: user already tracked")

	// ErrNotTracked is returned by UntrackUser for an unknown pair.
	ErrNotTracked = errors.New("tracking: user is not tracked")
)

// Fetcher returns the current external state of a CryptoHack profile.
type Fetcher interface {
	FetchProfile(ctx context.Context, username string) (*cryptohack.Profile, error)
}

// Store is the persistence surface the core needs. *database.Store
// implements it; tests use an in-memory fake.
type Store interface {
	Create(ctx context.Context, user *models.TrackedUser) (bool, error)
	Delete(ctx context.Context, guildID snowflake.ID, username string) (bool, error)
	GetByGuild(ctx context.Context, guildID snowflake.ID) ([]*models.TrackedUser, error)
	GetGuildIDs(ctx context.Context) ([]snowflake.ID, error)
	Update(ctx context.Context, user *models.TrackedUser) error

	SolvedSet(ctx context.Context, guildID snowflake.ID, username string) (map[string]struct{}, error)
	Insert(ctx context.Context, solve *models.Solve) (bool, error)
	MarkAnnounced(ctx context.Context, guildID snowflake.ID, username, challengeName string) error
	Unannounced(ctx context.Context, guildID snowflake.ID) ([]*models.Solve, error)
	Solvers(ctx context.Context, guildID snowflake.ID, challengeName string) ([]*models.Solve, error)
	CountByUser(ctx context.Context, guildID snowflake.ID, username string) (int, error)

	GetFirstBlood(ctx context.Context, guildID snowflake.ID, challengeName string) (*models.FirstBlood, error)
	PutFirstBlood(ctx context.Context, fb *models.FirstBlood) (bool, error)
}
