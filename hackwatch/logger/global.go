package logger

import (
	"log/slog"
	"time"
)

// LogFetch logs CryptoHack API calls
func LogFetch(username string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "api"),
		slog.String("username", username),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Warn("Profile fetch failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Profile fetched", attrs...)
	}
}
