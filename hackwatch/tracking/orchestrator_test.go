package tracking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/assakaf/hackwatch/hackwatch/tracking"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator() (*tracking.Orchestrator, *fakeStore, *fakeFetcher) {
	store := newFakeStore()
	fetcher := newFakeFetcher()
	return tracking.NewOrchestrator(fetcher, store, 0), store, fetcher
}

func TestTrackUserSeedsSilently(t *testing.T) {
	t.Parallel()

	orch, store, fetcher := newTestOrchestrator()
	ctx := t.Context()

	fetcher.setProfile("alice", 245,
		challenge("RSA Starter 1", "RSA", 10),
		challenge("Adrien's Signs", "Mathematics", 80))

	profile, err := orch.TrackUser(ctx, testGuildID, "Alice", "111")
	require.NoError(t, err)
	assert.Equal(t, 245, profile.Score)

	// History is persisted pre-announced and without first bloods.
	unannounced, err := store.Unannounced(ctx, testGuildID)
	require.NoError(t, err)
	assert.Empty(t, unannounced)

	fb, err := store.GetFirstBlood(ctx, testGuildID, "RSA Starter 1")
	require.NoError(t, err)
	assert.Nil(t, fb)

	count, err := store.CountByUser(ctx, testGuildID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTrackUserAlreadyTracked(t *testing.T) {
	t.Parallel()

	orch, _, fetcher := newTestOrchestrator()
	ctx := t.Context()
	fetcher.setProfile("alice", 100)

	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)

	_, err = orch.TrackUser(ctx, testGuildID, "ALICE", "111")
	assert.ErrorIs(t, err, tracking.ErrAlreadyTracked)
}

func TestTrackUserNotFound(t *testing.T) {
	t.Parallel()

	orch, _, _ := newTestOrchestrator()

	_, err := orch.TrackUser(t.Context(), testGuildID, "nobody", "111")
	assert.ErrorIs(t, err, cryptohack.ErrUserNotFound)
}

func TestTrackUserKeepsExistingFirstBlood(t *testing.T) {
	t.Parallel()

	orch, store, fetcher := newTestOrchestrator()
	ctx := t.Context()

	// alice already holds the first blood for Adrien's Signs.
	fetcher.setProfile("alice", 80, challenge("Adrien's Signs", "Mathematics", 80))
	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)

	fetcher.setProfile("alice", 160,
		challenge("Adrien's Signs", "Mathematics", 80),
		challenge("RSA Starter 1", "RSA", 10))
	report, err := orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, report.Events, 1)
	for _, event := range report.Events {
		require.NoError(t, store.MarkAnnounced(ctx, event.GuildID, event.Username, event.ChallengeName))
	}

	// carol's seeded history includes the same challenges; nothing moves.
	fetcher.setProfile("carol", 90,
		challenge("Adrien's Signs", "Mathematics", 80),
		challenge("RSA Starter 1", "RSA", 10))
	_, err = orch.TrackUser(ctx, testGuildID, "carol", "222")
	require.NoError(t, err)

	fb, err := store.GetFirstBlood(ctx, testGuildID, "RSA Starter 1")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, "alice", fb.SolverUsername)

	unannounced, err := store.Unannounced(ctx, testGuildID)
	require.NoError(t, err)
	assert.Empty(t, unannounced)
}

func TestUntrackUser(t *testing.T) {
	t.Parallel()

	orch, store, fetcher := newTestOrchestrator()
	ctx := t.Context()
	fetcher.setProfile("alice", 100)

	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)

	_, err = store.PutFirstBlood(ctx, &models.FirstBlood{
		GuildID:        testGuildID.String(),
		ChallengeName:  "RSA Starter 1",
		SolverUsername: "alice",
		SolvedAt:       time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, orch.UntrackUser(ctx, testGuildID, "Alice"))
	assert.ErrorIs(t, orch.UntrackUser(ctx, testGuildID, "alice"), tracking.ErrNotTracked)

	// First bloods survive removal.
	fb, err := store.GetFirstBlood(ctx, testGuildID, "RSA Starter 1")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, "alice", fb.SolverUsername)
}

func TestRunGuildAnnouncesNewSolves(t *testing.T) {
	t.Parallel()

	orch, store, fetcher := newTestOrchestrator()
	ctx := t.Context()

	fetcher.setProfile("alice", 10, challenge("RSA Starter 1", "RSA", 10))
	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)

	fetcher.setProfile("alice", 90,
		challenge("RSA Starter 1", "RSA", 10),
		challenge("Adrien's Signs", "Mathematics", 80))

	report, err := orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, report.Events, 1)
	assert.Equal(t, 1, report.UsersChecked)

	event := report.Events[0]
	assert.Equal(t, "alice", event.Username)
	assert.Equal(t, "Adrien's Signs", event.ChallengeName)
	assert.Equal(t, "Mathematics", event.Category)
	assert.Equal(t, 80, event.Points)
	assert.Equal(t, 90, event.Score)
	assert.True(t, event.IsFirstBlood)

	// Events are re-emitted until delivery marks them announced.
	report, err = orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, report.Events, 1)

	require.NoError(t, store.MarkAnnounced(ctx, testGuildID, "alice", "Adrien's Signs"))

	report, err = orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)
	assert.Empty(t, report.Events)
}

func TestRunGuildTieBreakAscendingUsername(t *testing.T) {
	t.Parallel()

	orch, store, fetcher := newTestOrchestrator()
	ctx := t.Context()

	fetcher.setProfile("dave", 0)
	fetcher.setProfile("erin", 0)
	_, err := orch.TrackUser(ctx, testGuildID, "erin", "222")
	require.NoError(t, err)
	_, err = orch.TrackUser(ctx, testGuildID, "dave", "111")
	require.NoError(t, err)

	// Both solved the same challenge between cycles.
	fetcher.setProfile("dave", 50, challenge("Lemur XOR", "XOR", 50))
	fetcher.setProfile("erin", 50, challenge("Lemur XOR", "XOR", 50))

	report, err := orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, report.Events, 2)

	fb, err := store.GetFirstBlood(ctx, testGuildID, "Lemur XOR")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, "dave", fb.SolverUsername)

	byUser := make(map[string]tracking.AnnouncementEvent)
	for _, event := range report.Events {
		byUser[event.Username] = event
	}
	assert.True(t, byUser["dave"].IsFirstBlood)
	assert.False(t, byUser["erin"].IsFirstBlood)
}

func TestRunGuildFailureIsolation(t *testing.T) {
	t.Parallel()

	orch, _, fetcher := newTestOrchestrator()
	ctx := t.Context()

	fetcher.setProfile("alice", 0)
	fetcher.setProfile("bob", 0)
	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)
	_, err = orch.TrackUser(ctx, testGuildID, "bob", "222")
	require.NoError(t, err)

	fetcher.setProfile("bob", 10, challenge("RSA Starter 1", "RSA", 10))
	fetcher.errs["alice"] = &cryptohack.APIError{StatusCode: 502}

	report, err := orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)

	assert.Equal(t, 1, report.UsersChecked)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "alice", report.Failures[0].Username)

	// bob's new solve still went through.
	require.Len(t, report.Events, 1)
	assert.Equal(t, "bob", report.Events[0].Username)
}

func TestRunGuildStaleRead(t *testing.T) {
	t.Parallel()

	orch, store, fetcher := newTestOrchestrator()
	ctx := t.Context()

	fetcher.setProfile("alice", 90,
		challenge("RSA Starter 1", "RSA", 10),
		challenge("Adrien's Signs", "Mathematics", 80))
	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)

	// The API briefly returns a shorter solve list.
	fetcher.setProfile("alice", 90, challenge("RSA Starter 1", "RSA", 10))

	report, err := orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)
	assert.Empty(t, report.Events)

	set, err := store.SolvedSet(ctx, testGuildID, "alice")
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestRunCycleSerialization(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	fetcher := &blockingFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	orch := tracking.NewOrchestrator(fetcher, store, 0)
	ctx := t.Context()

	_, err := store.Create(ctx, &models.TrackedUser{
		GuildID:       testGuildID.String(),
		Username:      "alice",
		LastCheckedAt: time.Now(),
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := orch.RunCycle(ctx)
		done <- err
	}()

	<-fetcher.started
	_, err = orch.RunCycle(ctx)
	assert.ErrorIs(t, err, tracking.ErrCycleInProgress)
	_, err = orch.RunGuild(ctx, testGuildID)
	assert.ErrorIs(t, err, tracking.ErrCycleInProgress)

	close(fetcher.release)
	require.NoError(t, <-done)

	// Once the first cycle finishes, a new one may run.
	_, err = orch.RunCycle(ctx)
	require.NoError(t, err)
}

func TestRunCycleCoversAllGuilds(t *testing.T) {
	t.Parallel()

	orch, store, fetcher := newTestOrchestrator()
	ctx := t.Context()
	otherGuild := snowflake.ID(200)

	fetcher.setProfile("alice", 0)
	fetcher.setProfile("bob", 0)
	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)
	_, err = orch.TrackUser(ctx, otherGuild, "bob", "222")
	require.NoError(t, err)

	fetcher.setProfile("alice", 10, challenge("RSA Starter 1", "RSA", 10))
	fetcher.setProfile("bob", 10, challenge("RSA Starter 1", "RSA", 10))

	report, err := orch.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UsersChecked)
	require.Len(t, report.Events, 2)

	// Each guild gets its own first blood for the same challenge.
	for _, guildID := range []snowflake.ID{testGuildID, otherGuild} {
		fb, err := store.GetFirstBlood(ctx, guildID, "RSA Starter 1")
		require.NoError(t, err)
		require.NotNil(t, fb)
	}
}

func TestRunGuildRetryKeepsFirstBloodFlag(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	fetcher := newFakeFetcher()
	flaky := &insertFailStore{fakeStore: store}
	orch := tracking.NewOrchestrator(fetcher, flaky, 0)
	ctx := t.Context()

	fetcher.setProfile("alice", 0)
	_, err := orch.TrackUser(ctx, testGuildID, "alice", "111")
	require.NoError(t, err)

	// The store fails between recording the first blood and persisting
	// the solve; the cycle aborts with the first blood already committed.
	fetcher.setProfile("alice", 50, challenge("Lemur XOR", "XOR", 50))
	flaky.failNext = true
	_, err = orch.RunGuild(ctx, testGuildID)
	require.Error(t, err)

	fb, err := store.GetFirstBlood(ctx, testGuildID, "Lemur XOR")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, "alice", fb.SolverUsername)

	// The retry cycle must persist and announce the solve with the
	// marker the committed record already assigns to alice.
	report, err := orch.RunGuild(ctx, testGuildID)
	require.NoError(t, err)
	require.Len(t, report.Events, 1)
	assert.Equal(t, "alice", report.Events[0].Username)
	assert.True(t, report.Events[0].IsFirstBlood)

	solvers, err := store.Solvers(ctx, testGuildID, "Lemur XOR")
	require.NoError(t, err)
	require.Len(t, solvers, 1)
	assert.True(t, solvers[0].FirstBlood)
}

// insertFailStore fails the next solve insert when armed.
type insertFailStore struct {
	*fakeStore
	failNext bool
}

func (s *insertFailStore) Insert(ctx context.Context, solve *models.Solve) (bool, error) {
	if s.failNext {
		s.failNext = false
		return false, errors.New("connection reset by peer")
	}
	return s.fakeStore.Insert(ctx, solve)
}

// blockingFetcher parks the first fetch until release is closed.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
	once    bool
}

func (f *blockingFetcher) FetchProfile(ctx context.Context, username string) (*cryptohack.Profile, error) {
	if !f.once {
		f.once = true
		close(f.started)
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &cryptohack.Profile{Username: username}, nil
}
