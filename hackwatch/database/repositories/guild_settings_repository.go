package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type GuildSettingsRepository interface {
	GetSettings(ctx context.Context, guildID snowflake.ID) (*models.GuildSettings, error)
	SetAnnouncementChannel(ctx context.Context, guildID, channelID snowflake.ID) error
}

type guildSettingsRepository struct {
	db *bun.DB
}

func NewGuildSettingsRepository(db *bun.DB) GuildSettingsRepository {
	return &guildSettingsRepository{db: db}
}

// GetSettings returns the settings for a guild, or nil when none have been stored.
func (r *guildSettingsRepository) GetSettings(ctx context.Context, guildID snowflake.ID) (*models.GuildSettings, error) {
	settings := new(models.GuildSettings)
	err := r.db.NewSelect().
		Model(settings).
		Where("guild_id = ?", guildID.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return settings, nil
}

func (r *guildSettingsRepository) SetAnnouncementChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	settings := &models.GuildSettings{
		GuildID:               guildID.String(),
		AnnouncementChannelID: channelID.String(),
	}
	_, err := r.db.NewInsert().
		Model(settings).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("announcement_channel_id = EXCLUDED.announcement_channel_id").
		Exec(ctx)
	return err
}
