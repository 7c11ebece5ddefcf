package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type FirstBloodRepository interface {
	GetFirstBlood(ctx context.Context, guildID snowflake.ID, challengeName string) (*models.FirstBlood, error)
	PutFirstBlood(ctx context.Context, fb *models.FirstBlood) (bool, error)
	ListFirstBloods(ctx context.Context, guildID snowflake.ID) ([]*models.FirstBlood, error)
}

type firstBloodRepository struct {
	db *bun.DB
}

func NewFirstBloodRepository(db *bun.DB) FirstBloodRepository {
	return &firstBloodRepository{db: db}
}

// GetFirstBlood returns the first blood for a challenge, or nil when none is recorded.
func (r *firstBloodRepository) GetFirstBlood(ctx context.Context, guildID snowflake.ID, challengeName string) (*models.FirstBlood, error) {
	fb := new(models.FirstBlood)
	err := r.db.NewSelect().
		Model(fb).
		Where("guild_id = ?", guildID.String()).
		Where("challenge_name = ?", challengeName).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return fb, nil
}

// PutFirstBlood records a first blood. Returns false without modifying anything when a
// record already exists: first blood is never reassigned.
func (r *firstBloodRepository) PutFirstBlood(ctx context.Context, fb *models.FirstBlood) (bool, error) {
	if fb.SolvedAt.IsZero() {
		fb.SolvedAt = time.Now()
	}
	res, err := r.db.NewInsert().
		Model(fb).
		On("CONFLICT (guild_id, challenge_name) DO NOTHING").
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

func (r *firstBloodRepository) ListFirstBloods(ctx context.Context, guildID snowflake.ID) ([]*models.FirstBlood, error) {
	var fbs []*models.FirstBlood
	err := r.db.NewSelect().
		Model(&fbs).
		Where("guild_id = ?", guildID.String()).
		Order("solved_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fbs, nil
}
