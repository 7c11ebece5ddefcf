package announce

import (
	"context"
	"errors"
	"testing"

	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/assakaf/hackwatch/hackwatch/tracking"
	"github.com/assakaf/hackwatch/hackwatch/utils"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmbedFirstBlood(t *testing.T) {
	t.Parallel()

	a := &Announcer{}
	embed := a.buildEmbed(tracking.AnnouncementEvent{
		GuildID:       snowflake.ID(100),
		Username:      "hellman",
		ChallengeName: "Lemur XOR",
		Category:      "XOR",
		Points:        40,
		Score:         4815,
		IsFirstBlood:  true,
	})

	assert.Equal(t, "🩸 First Blood!", embed.Title)
	assert.Equal(t, utils.FirstBloodColor, embed.Color)
	assert.Contains(t, embed.Description, "hellman")
	assert.Contains(t, embed.Description, "Lemur XOR")
	assert.Contains(t, embed.Description, "first in the server")

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "XOR", embed.Fields[0].Value)
	assert.Equal(t, "40", embed.Fields[1].Value)
}

func TestBuildEmbedRegularSolve(t *testing.T) {
	t.Parallel()

	a := &Announcer{}
	embed := a.buildEmbed(tracking.AnnouncementEvent{
		GuildID:       snowflake.ID(100),
		Username:      "alice",
		ChallengeName: "Modular Binomials",
		Category:      "Mathematics",
		Points:        80,
		Score:         230,
	})

	assert.Equal(t, "🎉 Challenge Solved!", embed.Title)
	assert.Equal(t, utils.SuccessColor, embed.Color)
	assert.Contains(t, embed.Description, "alice")
	assert.NotContains(t, embed.Description, "first in the server")
}

func TestDeliverMarksAnnouncedAfterSend(t *testing.T) {
	t.Parallel()

	restStub := &recordingRest{}
	store := &fakeStore{
		settings: map[snowflake.ID]*models.GuildSettings{
			100: {GuildID: "100", AnnouncementChannelID: "42"},
		},
	}
	a := New(&fakeClient{rest: restStub}, store, nil, nil)

	a.Deliver(t.Context(), []tracking.AnnouncementEvent{
		{GuildID: snowflake.ID(100), Username: "alice", ChallengeName: "Lemur XOR"},
		{GuildID: snowflake.ID(100), Username: "bob", ChallengeName: "RSA Starter 1"},
	})

	// Both rows are sent and marked announced by the time Deliver returns,
	// so a cycle starting right after re-collects nothing.
	assert.Equal(t, []snowflake.ID{42, 42}, restStub.channels)
	assert.Equal(t, []string{"100|alice|Lemur XOR", "100|bob|RSA Starter 1"}, store.marked)
}

func TestDeliverMarksAnnouncedWithoutChannel(t *testing.T) {
	t.Parallel()

	restStub := &recordingRest{}
	store := &fakeStore{}
	a := New(&fakeClient{rest: restStub}, store, nil, nil)

	a.Deliver(t.Context(), []tracking.AnnouncementEvent{
		{GuildID: snowflake.ID(100), Username: "alice", ChallengeName: "Lemur XOR"},
	})

	// No channel resolves; the row is still marked so it is not retried
	// every cycle.
	assert.Empty(t, restStub.channels)
	assert.Equal(t, []string{"100|alice|Lemur XOR"}, store.marked)
}

// fakeClient satisfies bot.Client for the methods Deliver touches.
type fakeClient struct {
	bot.Client
	rest rest.Rest
}

func (c *fakeClient) Rest() rest.Rest { return c.rest }

type recordingRest struct {
	rest.Rest
	channels []snowflake.ID
}

func (r *recordingRest) CreateMessage(channelID snowflake.ID, _ discord.MessageCreate, _ ...rest.RequestOpt) (*discord.Message, error) {
	r.channels = append(r.channels, channelID)
	return &discord.Message{}, nil
}

func (r *recordingRest) GetGuildChannels(snowflake.ID, ...rest.RequestOpt) ([]discord.GuildChannel, error) {
	return nil, errors.New("guild channels unavailable")
}

func (r *recordingRest) GetGuild(snowflake.ID, bool, ...rest.RequestOpt) (*discord.RestGuild, error) {
	return nil, errors.New("guild unavailable")
}

type fakeStore struct {
	settings map[snowflake.ID]*models.GuildSettings
	marked   []string
}

func (s *fakeStore) GetSettings(_ context.Context, guildID snowflake.ID) (*models.GuildSettings, error) {
	return s.settings[guildID], nil
}

func (s *fakeStore) MarkAnnounced(_ context.Context, guildID snowflake.ID, username, challengeName string) error {
	s.marked = append(s.marked, guildID.String()+"|"+username+"|"+challengeName)
	return nil
}
