package repositories

import (
	"context"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type SolveRepository interface {
	SolvedSet(ctx context.Context, guildID snowflake.ID, username string) (map[string]struct{}, error)
	Insert(ctx context.Context, solve *models.Solve) (bool, error)
	MarkAnnounced(ctx context.Context, guildID snowflake.ID, username, challengeName string) error
	Unannounced(ctx context.Context, guildID snowflake.ID) ([]*models.Solve, error)
	Solvers(ctx context.Context, guildID snowflake.ID, challengeName string) ([]*models.Solve, error)
	ChallengeNames(ctx context.Context, guildID snowflake.ID) ([]string, error)
	CountByUser(ctx context.Context, guildID snowflake.ID, username string) (int, error)
}

type solveRepository struct {
	db *bun.DB
}

func NewSolveRepository(db *bun.DB) SolveRepository {
	return &solveRepository{db: db}
}

func (r *solveRepository) SolvedSet(ctx context.Context, guildID snowflake.ID, username string) (map[string]struct{}, error) {
	var names []string
	err := r.db.NewSelect().
		Model((*models.Solve)(nil)).
		Column("challenge_name").
		Where("guild_id = ?", guildID.String()).
		Where("username = ?", username).
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set, nil
}

// Insert records a solve. Returns false when the row already exists; the
// existing row is left untouched so the solved set never regresses.
func (r *solveRepository) Insert(ctx context.Context, solve *models.Solve) (bool, error) {
	solve.CreatedAt = time.Now()
	res, err := r.db.NewInsert().
		Model(solve).
		On("CONFLICT (guild_id, username, challenge_name) DO NOTHING").
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

func (r *solveRepository) MarkAnnounced(ctx context.Context, guildID snowflake.ID, username, challengeName string) error {
	_, err := r.db.NewUpdate().
		Model((*models.Solve)(nil)).
		Set("announced = TRUE").
		Where("guild_id = ?", guildID.String()).
		Where("username = ?", username).
		Where("challenge_name = ?", challengeName).
		Exec(ctx)
	return err
}

func (r *solveRepository) Unannounced(ctx context.Context, guildID snowflake.ID) ([]*models.Solve, error) {
	var solves []*models.Solve
	err := r.db.NewSelect().
		Model(&solves).
		Where("guild_id = ?", guildID.String()).
		Where("announced = FALSE").
		Order("username ASC", "challenge_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return solves, nil
}

func (r *solveRepository) Solvers(ctx context.Context, guildID snowflake.ID, challengeName string) ([]*models.Solve, error) {
	var solves []*models.Solve
	err := r.db.NewSelect().
		Model(&solves).
		Where("guild_id = ?", guildID.String()).
		Where("challenge_name = ?", challengeName).
		Order("solved_date ASC", "username ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return solves, nil
}

func (r *solveRepository) ChallengeNames(ctx context.Context, guildID snowflake.ID) ([]string, error) {
	var names []string
	err := r.db.NewSelect().
		Model((*models.Solve)(nil)).
		ColumnExpr("DISTINCT challenge_name").
		Where("guild_id = ?", guildID.String()).
		Order("challenge_name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *solveRepository) CountByUser(ctx context.Context, guildID snowflake.ID, username string) (int, error) {
	return r.db.NewSelect().
		Model((*models.Solve)(nil)).
		Where("guild_id = ?", guildID.String()).
		Where("username = ?", username).
		Count(ctx)
}
