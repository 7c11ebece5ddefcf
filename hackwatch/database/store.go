package database

import (
	"github.com/assakaf/hackwatch/hackwatch/database/repositories"
	"github.com/uptrace/bun"
)

// Store bundles the repositories into the single handle the tracking
// package consumes. All methods are promoted from the embedded interfaces.
type Store struct {
	repositories.TrackedUserRepository
	repositories.SolveRepository
	repositories.FirstBloodRepository
	repositories.GuildSettingsRepository
}

func NewStore(db *bun.DB) *Store {
	return &Store{
		TrackedUserRepository:   repositories.NewTrackedUserRepository(db),
		SolveRepository:         repositories.NewSolveRepository(db),
		FirstBloodRepository:    repositories.NewFirstBloodRepository(db),
		GuildSettingsRepository: repositories.NewGuildSettingsRepository(db),
	}
}
