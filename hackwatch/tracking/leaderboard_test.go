package tracking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrdering(t *testing.T) {
	t.Parallel()

	orch, _, fetcher := newTestOrchestrator()
	ctx := t.Context()

	fetcher.setProfile("alice", 150,
		challenge("RSA Starter 1", "RSA", 10),
		challenge("Adrien's Signs", "Mathematics", 80))
	fetcher.setProfile("bob", 150, challenge("RSA Starter 1", "RSA", 10))
	fetcher.setProfile("carol", 300, challenge("Adrien's Signs", "Mathematics", 80))

	for _, username := range []string{"carol", "alice", "bob"} {
		_, err := orch.TrackUser(ctx, testGuildID, username, "")
		require.NoError(t, err)
	}

	entries, err := orch.Leaderboard(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Descending score, ties broken by ascending username.
	assert.Equal(t, "carol", entries[0].Username)
	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, "bob", entries[2].Username)

	assert.Equal(t, 300, entries[0].Score)
	assert.Equal(t, 2, entries[1].Solved)
	assert.Equal(t, 1, entries[2].Solved)
}

func TestLeaderboardEmptyGuild(t *testing.T) {
	t.Parallel()

	orch, _, _ := newTestOrchestrator()

	entries, err := orch.Leaderboard(t.Context(), testGuildID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRefreshLeaderboardPicksUpNewScores(t *testing.T) {
	t.Parallel()

	orch, _, fetcher := newTestOrchestrator()
	ctx := t.Context()

	fetcher.setProfile("alice", 10, challenge("RSA Starter 1", "RSA", 10))
	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)

	fetcher.setProfile("alice", 90,
		challenge("RSA Starter 1", "RSA", 10),
		challenge("Adrien's Signs", "Mathematics", 80))

	entries, report, err := orch.RefreshLeaderboard(ctx, testGuildID)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, entries, 1)

	assert.Equal(t, 90, entries[0].Score)
	assert.Equal(t, 2, entries[0].Solved)
	assert.Len(t, report.Events, 1)
}
