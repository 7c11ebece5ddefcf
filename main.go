package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assakaf/hackwatch/hackwatch"
	"github.com/assakaf/hackwatch/hackwatch/announce"
	"github.com/assakaf/hackwatch/hackwatch/commands"
	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/database"
	"github.com/assakaf/hackwatch/hackwatch/handlers"
	"github.com/assakaf/hackwatch/hackwatch/logger"
	"github.com/assakaf/hackwatch/hackwatch/migration"
	"github.com/assakaf/hackwatch/hackwatch/services"
	"github.com/assakaf/hackwatch/hackwatch/tracking"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting HackWatch Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	importLegacy := flag.Bool("import-legacy", false, "Import tracking state from the legacy MongoDB bot and exit")
	mongoURI := flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB URI for -import-legacy")
	mongoDB := flag.String("mongo-db", "cryptohackbot", "MongoDB database name for -import-legacy")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := hackwatch.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	if *importLegacy {
		if err := runLegacyImport(ctx, db, *mongoURI, *mongoDB); err != nil {
			slog.Error("Legacy import failed", slog.Any("error", err))
			os.Exit(-1)
		}
		return
	}

	b := hackwatch.New(*cfg, version, commit)
	b.DB = db
	b.Store = database.NewStore(db.BunDB())

	client := cryptohack.New(cfg.Tracker.APIBaseURL)
	b.Fetcher, err = cryptohack.NewCachedFetcher(client, 512, 2*time.Minute)
	if err != nil {
		slog.Error("Failed to initialize profile cache", slog.Any("error", err))
		os.Exit(-1)
	}

	b.Orchestrator = tracking.NewOrchestrator(b.Fetcher, b.Store, cfg.Tracker.FetchDelay())
	b.SolveImages = services.NewSolveImageService()
	b.LeaderboardImages = services.NewLeaderboardImageService()

	if cfg.Spaces.Enabled() {
		spaces, err := services.NewSpacesService(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.ImageRoot,
		)
		if err != nil {
			slog.Error("Failed to initialize Spaces service", slog.Any("error", err))
			os.Exit(-1)
		}
		b.Spaces = spaces
	}

	h := handler.New()
	h.Command("/adduser", handlers.WrapWithLogging("adduser", commands.AddUserHandler(b)))
	h.Command("/removeuser", handlers.WrapWithLogging("removeuser", commands.RemoveUserHandler(b)))
	h.Command("/users", handlers.WrapWithLogging("users", commands.UsersHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", commands.LeaderboardHandler(b)))
	h.Command("/firstbloods", handlers.WrapWithLogging("firstbloods", commands.FirstBloodsHandler(b)))
	h.Command("/profile", handlers.WrapWithLogging("profile", commands.ProfileHandler(b)))
	h.Command("/challenge", handlers.WrapWithLogging("challenge", commands.ChallengeHandler(b)))
	h.Command("/setchannel", handlers.WrapWithLogging("setchannel", commands.SetChannelHandler(b)))
	h.Command("/refresh", handlers.WrapWithLogging("refresh", commands.RefreshHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)))
		os.Exit(-1)
	}

	b.Announcer = announce.New(b.Client, b.Store, b.SolveImages, b.Spaces)

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}

	gwCtx, gwCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gwCancel()
	if err = b.Client.OpenGateway(gwCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}

	cycleCtx, cycleCancel := context.WithCancel(context.Background())
	defer cycleCancel()
	go runCycles(cycleCtx, b)

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}

// runCycles drives the periodic reconciliation loop until ctx is cancelled.
func runCycles(ctx context.Context, b *hackwatch.Bot) {
	interval := b.Cfg.Tracker.CheckInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cycleCtx, cancel := context.WithTimeout(ctx, interval)
			report, err := b.Orchestrator.RunCycle(cycleCtx)
			if err != nil {
				if errors.Is(err, tracking.ErrCycleInProgress) {
					slog.Info("Skipping cycle, previous one still running",
						slog.String("type", "sync"))
				} else {
					slog.Error("Reconciliation cycle failed",
						slog.String("type", "sync"),
						slog.Any("error", err))
				}
			}
			if report != nil && len(report.Events) > 0 {
				b.Announcer.Deliver(cycleCtx, report.Events)
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

func runLegacyImport(ctx context.Context, db *database.DB, mongoURI, mongoDB string) error {
	slog.Info("Importing legacy tracking state",
		slog.String("type", "db"),
		slog.String("mongo_db", mongoDB))

	m := migration.NewMigrator(db.BunDB())
	if err := m.Connect(ctx, mongoURI, mongoDB); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Close(closeCtx); err != nil {
			slog.Error("Failed to close mongo connection", slog.Any("error", err))
		}
	}()

	return m.MigrateAll(ctx)
}
