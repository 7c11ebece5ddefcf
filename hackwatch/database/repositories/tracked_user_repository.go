package repositories

import (
	"context"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type TrackedUserRepository interface {
	Create(ctx context.Context, user *models.TrackedUser) (bool, error)
	Delete(ctx context.Context, guildID snowflake.ID, username string) (bool, error)
	GetByGuild(ctx context.Context, guildID snowflake.ID) ([]*models.TrackedUser, error)
	GetGuildIDs(ctx context.Context) ([]snowflake.ID, error)
	Update(ctx context.Context, user *models.TrackedUser) error
}

type trackedUserRepository struct {
	db *bun.DB
}

func NewTrackedUserRepository(db *bun.DB) TrackedUserRepository {
	return &trackedUserRepository{db: db}
}

// Create inserts a new tracked user. Returns false when the (guild, username)
// pair is already tracked.
func (r *trackedUserRepository) Create(ctx context.Context, user *models.TrackedUser) (bool, error) {
	user.AddedAt = time.Now()
	res, err := r.db.NewInsert().
		Model(user).
		On("CONFLICT (guild_id, username) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *trackedUserRepository) Delete(ctx context.Context, guildID snowflake.ID, username string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*models.TrackedUser)(nil)).
		Where("guild_id = ?", guildID.String()).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *trackedUserRepository) GetByGuild(ctx context.Context, guildID snowflake.ID) ([]*models.TrackedUser, error) {
	var users []*models.TrackedUser
	err := r.db.NewSelect().
		Model(&users).
		Where("guild_id = ?", guildID.String()).
		Order("username ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *trackedUserRepository) GetGuildIDs(ctx context.Context) ([]snowflake.ID, error) {
	var raw []string
	err := r.db.NewSelect().
		Model((*models.TrackedUser)(nil)).
		ColumnExpr("DISTINCT guild_id").
		Order("guild_id ASC").
		Scan(ctx, &raw)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(raw))
	for _, s := range raw {
		id, err := snowflake.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *trackedUserRepository) Update(ctx context.Context, user *models.TrackedUser) error {
	_, err := r.db.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)
	return err
}
