package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoTrackedUser represents a tracked user in the legacy MongoDB store.
type MongoTrackedUser struct {
	ID        primitive.ObjectID `bson:"_id"`
	GuildID   string             `bson:"guild_id"`
	Username  string             `bson:"username"`
	DiscordID string             `bson:"discord_id"`
	Score     int32              `bson:"score"`
	Added     time.Time          `bson:"added"`
	LastCheck time.Time          `bson:"last_check"`
}

// MongoSolve represents a recorded solve in the legacy MongoDB store.
type MongoSolve struct {
	ID            primitive.ObjectID `bson:"_id"`
	GuildID       string             `bson:"guild_id"`
	Username      string             `bson:"username"`
	ChallengeName string             `bson:"challenge"`
	Category      string             `bson:"category"`
	Points        int32              `bson:"points"`
	Date          string             `bson:"date"`
	FirstBlood    bool               `bson:"first_blood"`
}

// MongoFirstBlood represents a first blood record in the legacy MongoDB store.
type MongoFirstBlood struct {
	ID            primitive.ObjectID `bson:"_id"`
	GuildID       string             `bson:"guild_id"`
	ChallengeName string             `bson:"challenge"`
	Username      string             `bson:"username"`
	Date          time.Time          `bson:"date"`
}

// MongoGuildSettings represents per-guild settings in the legacy MongoDB store.
type MongoGuildSettings struct {
	ID            primitive.ObjectID `bson:"_id"`
	GuildID       string             `bson:"guild_id"`
	ChannelID     string             `bson:"channel_id"`
	CheckInterval int32              `bson:"check_interval"`
}
