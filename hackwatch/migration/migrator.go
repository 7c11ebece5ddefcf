// Package migration imports tracking state from the legacy MongoDB-backed
// bot into Postgres. It is a one-shot tool invoked from the -import-legacy
// flag and is safe to re-run: every insert is an upsert that never
// overwrites existing rows.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migrator struct {
	pgDB    *bun.DB
	mongoDB *mongo.Database

	batchSize int
	// Mongo collection names (overrideable)
	collNames map[string]string
}

func NewMigrator(pgDB *bun.DB) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		batchSize: 500,
		collNames: map[string]string{
			"tracked_users":  "trackedusers",
			"solves":         "solves",
			"first_bloods":   "firstbloods",
			"guild_settings": "guildsettings",
		},
	}
}

// Connect opens the legacy Mongo database. Call Close when done.
func (m *Migrator) Connect(ctx context.Context, uri, dbName string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}
	m.mongoDB = client.Database(dbName)
	return nil
}

func (m *Migrator) Close(ctx context.Context) error {
	if m.mongoDB == nil {
		return nil
	}
	return m.mongoDB.Client().Disconnect(ctx)
}

// SetCollectionName overrides the Mongo collection name for a given kind.
func (m *Migrator) SetCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) coll(kind string) *mongo.Collection {
	return m.mongoDB.Collection(m.collNames[kind])
}

// MigrateAll imports every legacy collection. First bloods go first so the
// solve import can never invent one, and settings go last since nothing
// depends on them.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongo not configured; call Connect first")
	}

	start := time.Now()
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"first_bloods", m.migrateFirstBloods},
		{"tracked_users", m.migrateTrackedUsers},
		{"solves", m.migrateSolves},
		{"guild_settings", m.migrateGuildSettings},
	}

	for _, step := range steps {
		stepStart := time.Now()
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
		slog.Info("Migration step completed",
			slog.String("type", "db"),
			slog.String("step", step.name),
			slog.Duration("took", time.Since(stepStart)))
	}

	slog.Info("Legacy import completed",
		slog.String("type", "db"),
		slog.Duration("took", time.Since(start)))
	return nil
}

func (m *Migrator) migrateTrackedUsers(ctx context.Context) error {
	cur, err := m.coll("tracked_users").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query trackedusers: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.TrackedUser
	skipped := 0
	for cur.Next(ctx) {
		var mu MongoTrackedUser
		if err := cur.Decode(&mu); err != nil {
			skipped++
			continue
		}
		if mu.GuildID == "" || mu.Username == "" {
			skipped++
			continue
		}
		batch = append(batch, &models.TrackedUser{
			GuildID:       mu.GuildID,
			Username:      strings.ToLower(mu.Username),
			DiscordUserID: mu.DiscordID,
			Score:         int(mu.Score),
			LastCheckedAt: mu.LastCheck,
			AddedAt:       addedOrNow(mu.Added),
		})
		if len(batch) >= m.batchSize {
			if err := m.insertTrackedUsers(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertTrackedUsers(ctx, batch); err != nil {
			return err
		}
	}
	if skipped > 0 {
		slog.Warn("Skipped invalid tracked user records",
			slog.String("type", "db"),
			slog.Int("count", skipped))
	}
	return nil
}

func (m *Migrator) insertTrackedUsers(ctx context.Context, users []*models.TrackedUser) error {
	_, err := m.pgDB.NewInsert().
		Model(&users).
		On("CONFLICT (guild_id, username) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert tracked users: %w", err)
	}
	return nil
}

// migrateSolves imports solve history pre-announced: legacy solves were
// already delivered by the old bot and must not be re-announced here.
func (m *Migrator) migrateSolves(ctx context.Context) error {
	cur, err := m.coll("solves").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query solves: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.Solve
	skipped := 0
	for cur.Next(ctx) {
		var ms MongoSolve
		if err := cur.Decode(&ms); err != nil {
			skipped++
			continue
		}
		if ms.GuildID == "" || ms.Username == "" || ms.ChallengeName == "" {
			skipped++
			continue
		}
		batch = append(batch, &models.Solve{
			GuildID:       ms.GuildID,
			Username:      strings.ToLower(ms.Username),
			ChallengeName: ms.ChallengeName,
			Category:      ms.Category,
			Points:        int(ms.Points),
			SolvedDate:    ms.Date,
			FirstBlood:    ms.FirstBlood,
			Announced:     true,
			CreatedAt:     time.Now(),
		})
		if len(batch) >= m.batchSize {
			if err := m.insertSolves(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertSolves(ctx, batch); err != nil {
			return err
		}
	}
	if skipped > 0 {
		slog.Warn("Skipped invalid solve records",
			slog.String("type", "db"),
			slog.Int("count", skipped))
	}
	return nil
}

func (m *Migrator) insertSolves(ctx context.Context, solves []*models.Solve) error {
	_, err := m.pgDB.NewInsert().
		Model(&solves).
		On("CONFLICT (guild_id, username, challenge_name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert solves: %w", err)
	}
	return nil
}

// migrateFirstBloods preserves the legacy attribution as-is. Conflicting
// rows already in Postgres win; a first blood is never reassigned.
func (m *Migrator) migrateFirstBloods(ctx context.Context) error {
	cur, err := m.coll("first_bloods").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query firstbloods: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.FirstBlood
	skipped := 0
	for cur.Next(ctx) {
		var mfb MongoFirstBlood
		if err := cur.Decode(&mfb); err != nil {
			skipped++
			continue
		}
		if mfb.GuildID == "" || mfb.ChallengeName == "" || mfb.Username == "" {
			skipped++
			continue
		}
		batch = append(batch, &models.FirstBlood{
			GuildID:        mfb.GuildID,
			ChallengeName:  mfb.ChallengeName,
			SolverUsername: strings.ToLower(mfb.Username),
			SolvedAt:       addedOrNow(mfb.Date),
		})
		if len(batch) >= m.batchSize {
			if err := m.insertFirstBloods(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertFirstBloods(ctx, batch); err != nil {
			return err
		}
	}
	if skipped > 0 {
		slog.Warn("Skipped invalid first blood records",
			slog.String("type", "db"),
			slog.Int("count", skipped))
	}
	return nil
}

func (m *Migrator) insertFirstBloods(ctx context.Context, firstBloods []*models.FirstBlood) error {
	_, err := m.pgDB.NewInsert().
		Model(&firstBloods).
		On("CONFLICT (guild_id, challenge_name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert first bloods: %w", err)
	}
	return nil
}

func (m *Migrator) migrateGuildSettings(ctx context.Context) error {
	cur, err := m.coll("guild_settings").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query guildsettings: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var mgs MongoGuildSettings
		if err := cur.Decode(&mgs); err != nil {
			continue
		}
		if mgs.GuildID == "" {
			continue
		}
		settings := &models.GuildSettings{
			GuildID:               mgs.GuildID,
			AnnouncementChannelID: mgs.ChannelID,
			CheckIntervalMinutes:  int(mgs.CheckInterval),
		}
		_, err := m.pgDB.NewInsert().
			Model(settings).
			On("CONFLICT (guild_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert guild settings: %w", err)
		}
	}
	return cur.Err()
}

func addedOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
