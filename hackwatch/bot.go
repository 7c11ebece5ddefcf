package hackwatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/announce"
	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/database"
	"github.com/assakaf/hackwatch/hackwatch/services"
	"github.com/assakaf/hackwatch/hackwatch/tracking"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	DB                *database.DB
	Store             *database.Store
	Fetcher           *cryptohack.CachedFetcher
	Orchestrator      *tracking.Orchestrator
	Announcer         *announce.Announcer
	SolveImages       *services.SolveImageService
	LeaderboardImages *services.LeaderboardImageService
	Spaces            *services.SpacesService
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("HackWatch is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit),
		slog.Duration("check_interval", b.Cfg.Tracker.CheckInterval()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("cryptohack.org"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
