package tracking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/disgoorg/snowflake/v2"
)

type LeaderboardEntry struct {
	Username string
	Score    int
	Solved   int
}

// Leaderboard ranks a guild's tracked users by stored score, descending,
// with ties broken by ascending username.
func (o *Orchestrator) Leaderboard(ctx context.Context, guildID snowflake.ID) ([]LeaderboardEntry, error) {
	users, err := o.store.GetByGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked users: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, user := range users {
		solved, err := o.store.CountByUser(ctx, guildID, user.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to count solves: %w", err)
		}
		entries = append(entries, LeaderboardEntry{
			Username: user.Username,
			Score:    user.Score,
			Solved:   solved,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	return entries, nil
}

// RefreshLeaderboard runs a reconciliation pass for the guild first so the
// ranking reflects current scores, then ranks. The refresh reuses the full
// diff/attribution pipeline and its fetch delay policy; when a cycle is
// already running the stale ranking is returned instead.
func (o *Orchestrator) RefreshLeaderboard(ctx context.Context, guildID snowflake.ID) ([]LeaderboardEntry, *CycleReport, error) {
	report, err := o.RunGuild(ctx, guildID)
	if err != nil && !errors.Is(err, ErrCycleInProgress) {
		return nil, nil, err
	}

	entries, err := o.Leaderboard(ctx, guildID)
	if err != nil {
		return nil, report, err
	}
	return entries, report, nil
}
