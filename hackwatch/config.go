package hackwatch

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig     `toml:"log"`
	Bot     BotConfig     `toml:"bot"`
	DB      DBConfig      `toml:"db"`
	Tracker TrackerConfig `toml:"tracker"`
	Spaces  SpacesConfig  `toml:"spaces"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type TrackerConfig struct {
	CheckIntervalMinutes int    `toml:"check_interval_minutes"`
	FetchDelayMillis     int    `toml:"fetch_delay_millis"`
	APIBaseURL           string `toml:"api_base_url"`
}

// CheckInterval returns the reconciliation interval, defaulting to 10 minutes.
func (c TrackerConfig) CheckInterval() time.Duration {
	if c.CheckIntervalMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

// FetchDelay returns the mandatory pause between CryptoHack API calls.
func (c TrackerConfig) FetchDelay() time.Duration {
	if c.FetchDelayMillis <= 0 {
		return time.Second
	}
	return time.Duration(c.FetchDelayMillis) * time.Millisecond
}

type SpacesConfig struct {
	Key       string `toml:"key"`
	Secret    string `toml:"secret"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	ImageRoot string `toml:"imageroot"`
}

// Enabled reports whether image archiving to Spaces is configured.
func (c SpacesConfig) Enabled() bool {
	return c.Key != "" && c.Secret != "" && c.Bucket != ""
}
