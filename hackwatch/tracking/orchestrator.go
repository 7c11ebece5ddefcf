package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
)

// Orchestrator drives reconciliation cycles: fetch, diff, attribute,
// persist, then emit announcement events. The periodic timer and the
// /refresh command share the same entry points; a mutex serializes cycles
// so two never interleave processing of the same guild's users.
type Orchestrator struct {
	fetcher    Fetcher
	store      Store
	attributor *Attributor
	delay      time.Duration

	mu        sync.Mutex
	lastFetch time.Time
}

func NewOrchestrator(fetcher Fetcher, store Store, fetchDelay time.Duration) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		store:      store,
		attributor: NewAttributor(store),
		delay:      fetchDelay,
	}
}

// RunCycle reconciles every tracked user across all guilds. Returns
// ErrCycleInProgress when another cycle is still running. Per-user fetch
// failures are collected in the report; store failures abort the cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !o.mu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer o.mu.Unlock()

	report := &CycleReport{StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	guildIDs, err := o.store.GetGuildIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list guilds: %w", err)
	}
	sort.Slice(guildIDs, func(i, j int) bool { return guildIDs[i] < guildIDs[j] })

	for _, guildID := range guildIDs {
		if err := o.reconcileGuild(ctx, guildID, report); err != nil {
			return report, err
		}
	}

	slog.Info("Reconciliation cycle finished",
		slog.String("type", "sync"),
		slog.Int("users_checked", report.UsersChecked),
		slog.Int("failures", len(report.Failures)),
		slog.Int("events", len(report.Events)),
		slog.Duration("took", time.Since(report.StartedAt)))

	return report, nil
}

// RunGuild reconciles a single guild's tracked users.
func (o *Orchestrator) RunGuild(ctx context.Context, guildID snowflake.ID) (*CycleReport, error) {
	if !o.mu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer o.mu.Unlock()

	report := &CycleReport{StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	if err := o.reconcileGuild(ctx, guildID, report); err != nil {
		return report, err
	}
	return report, nil
}

// reconcileGuild processes a guild's users in ascending username order.
// The order is the documented first-blood tie-break for solves observed in
// the same cycle; it must stay deterministic.
func (o *Orchestrator) reconcileGuild(ctx context.Context, guildID snowflake.ID, report *CycleReport) error {
	users, err := o.store.GetByGuild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to list tracked users: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	for _, user := range users {
		if err := o.pause(ctx); err != nil {
			return err
		}

		profile, err := o.fetcher.FetchProfile(ctx, user.Username)
		o.lastFetch = time.Now()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Skipping user this cycle",
				slog.String("type", "sync"),
				slog.String("guild_id", guildID.String()),
				slog.String("username", user.Username),
				slog.Any("error", err))
			report.Failures = append(report.Failures, UserFailure{
				GuildID:  guildID,
				Username: user.Username,
				Err:      err,
			})
			continue
		}

		if err := o.syncUser(ctx, guildID, user, profile); err != nil {
			return err
		}
		report.UsersChecked++
	}

	return o.collectEvents(ctx, guildID, users, report)
}

// syncUser diffs one user's fetched profile against stored state and
// persists the result. Diff, attribution and persistence for one user form
// one unit: any store error aborts the cycle before events are emitted.
func (o *Orchestrator) syncUser(ctx context.Context, guildID snowflake.ID, user *models.TrackedUser, profile *cryptohack.Profile) error {
	stored, err := o.store.SolvedSet(ctx, guildID, user.Username)
	if err != nil {
		return fmt.Errorf("failed to load solved set: %w", err)
	}

	// First observation of a user seeds state silently: no announcements,
	// no first bloods for pre-existing history.
	seeding := user.LastCheckedAt.IsZero() && len(stored) == 0

	for _, challenge := range Diff(stored, profile.SolvedChallenges) {
		isFirstBlood := false
		if !seeding {
			fb, err := o.attributor.Attribute(ctx, guildID, challenge.Name, user.Username)
			if err != nil {
				return err
			}
			isFirstBlood = fb != nil
		}

		_, err := o.store.Insert(ctx, &models.Solve{
			GuildID:       guildID.String(),
			Username:      user.Username,
			ChallengeName: challenge.Name,
			Category:      challenge.Category,
			Points:        challenge.Points,
			SolvedDate:    challenge.Date,
			FirstBlood:    isFirstBlood,
			Announced:     seeding,
		})
		if err != nil {
			return fmt.Errorf("failed to persist solve: %w", err)
		}
	}

	user.Score = profile.Score
	user.LastCheckedAt = time.Now()
	if err := o.store.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update tracked user: %w", err)
	}
	return nil
}

// collectEvents turns the guild's unannounced solves into announcement
// events. Solves persisted by a cycle that crashed before delivery are
// picked up here on the next cycle.
func (o *Orchestrator) collectEvents(ctx context.Context, guildID snowflake.ID, users []*models.TrackedUser, report *CycleReport) error {
	unannounced, err := o.store.Unannounced(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to load unannounced solves: %w", err)
	}

	scores := make(map[string]int, len(users))
	for _, user := range users {
		scores[user.Username] = user.Score
	}

	for _, solve := range unannounced {
		report.Events = append(report.Events, AnnouncementEvent{
			GuildID:       guildID,
			Username:      solve.Username,
			ChallengeName: solve.ChallengeName,
			Category:      solve.Category,
			Points:        solve.Points,
			Score:         scores[solve.Username],
			IsFirstBlood:  solve.FirstBlood,
		})
	}
	return nil
}

// TrackUser verifies the username against CryptoHack and starts tracking it
// for the guild. The user's existing history is seeded silently: solves are
// persisted pre-announced and produce no first bloods.
func (o *Orchestrator) TrackUser(ctx context.Context, guildID snowflake.ID, username, discordUserID string) (*cryptohack.Profile, error) {
	username = strings.ToLower(username)

	profile, err := o.fetcher.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	user := &models.TrackedUser{
		GuildID:       guildID.String(),
		Username:      username,
		DiscordUserID: discordUserID,
		Score:         profile.Score,
		LastCheckedAt: time.Now(),
	}
	created, err := o.store.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracked user: %w", err)
	}
	if !created {
		return nil, ErrAlreadyTracked
	}

	for _, challenge := range profile.SolvedChallenges {
		_, err := o.store.Insert(ctx, &models.Solve{
			GuildID:       guildID.String(),
			Username:      username,
			ChallengeName: challenge.Name,
			Category:      challenge.Category,
			Points:        challenge.Points,
			SolvedDate:    challenge.Date,
			Announced:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed solve: %w", err)
		}
	}

	slog.Info("Now tracking user",
		slog.String("type", "sync"),
		slog.String("guild_id", guildID.String()),
		slog.String("username", username),
		slog.Int("seeded_solves", len(profile.SolvedChallenges)))

	return profile, nil
}

// UntrackUser stops tracking a user. First bloods the user earned and the
// recorded solve history stay in place.
func (o *Orchestrator) UntrackUser(ctx context.Context, guildID snowflake.ID, username string) error {
	removed, err := o.store.Delete(ctx, guildID, strings.ToLower(username))
	if err != nil {
		return fmt.Errorf("failed to remove tracked user: %w", err)
	}
	if !removed {
		return ErrNotTracked
	}
	return nil
}

// pause enforces the minimum delay between consecutive external fetches.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.delay <= 0 {
		return nil
	}
	wait := o.delay - time.Since(o.lastFetch)
	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
