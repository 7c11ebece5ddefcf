package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// LeaderboardImageService renders the guild leaderboard as an image.
type LeaderboardImageService struct {
	logger *slog.Logger
	tmpl   *template.Template
}

type LeaderboardImageData struct {
	GuildName string
	Entries   []LeaderboardImageEntry
}

type LeaderboardImageEntry struct {
	Rank     int
	Username string
	Score    int
	Solved   int
}

const leaderboardTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
  body { margin: 0; background: transparent; font-family: 'Segoe UI', sans-serif; }
  #leaderboard-container {
    width: 640px; padding: 28px; border-radius: 14px;
    background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
    color: #eaeaea;
  }
  .title { font-size: 24px; font-weight: 700; color: #ffa502; margin-bottom: 16px; }
  table { width: 100%; border-collapse: collapse; font-size: 16px; }
  td, th { padding: 7px 10px; text-align: left; }
  th { color: #a4b0be; font-size: 13px; text-transform: uppercase; }
  tr:nth-child(even) { background: rgba(255, 255, 255, 0.04); }
  .rank { width: 48px; color: #ffa502; font-weight: 700; }
  .score { text-align: right; color: #2ed573; }
  .solved { text-align: right; color: #a4b0be; }
  .footer { margin-top: 16px; font-size: 12px; color: #57606f; }
</style>
</head>
<body>
<div id="leaderboard-container">
  <div class="title">🏆 {{.GuildName}} CryptoHack Leaderboard</div>
  <table>
    <tr><th></th><th>User</th><th class="score">Score</th><th class="solved">Solved</th></tr>
    {{range .Entries}}
    <tr>
      <td class="rank">#{{.Rank}}</td>
      <td>{{.Username}}</td>
      <td class="score">{{.Score}}</td>
      <td class="solved">{{.Solved}}</td>
    </tr>
    {{end}}
  </table>
  <div class="footer">CryptoHack · {{len .Entries}} tracked users</div>
</div>
</body>
</html>`

func NewLeaderboardImageService() *LeaderboardImageService {
	return &LeaderboardImageService{
		logger: slog.With(slog.String("service", "leaderboard_image")),
		tmpl:   template.Must(template.New("leaderboard").Parse(leaderboardTemplate)),
	}
}

func (s *LeaderboardImageService) GenerateLeaderboardImage(ctx context.Context, data LeaderboardImageData) ([]byte, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render leaderboard template: %w", err)
	}

	chromedpCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	chromedpCtx, cancel = context.WithTimeout(chromedpCtx, 15*time.Second)
	defer cancel()

	var imageBytes []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate("data:text/html,"+buf.String()),
		chromedp.WaitVisible("#leaderboard-container", chromedp.ByID),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.Screenshot("#leaderboard-container", &imageBytes, chromedp.ByID),
	)
	if err != nil {
		s.logger.Error("Failed to generate leaderboard image",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	s.logger.Debug("Leaderboard image generated",
		slog.Int("entries", len(data.Entries)),
		slog.Int("image_size", len(imageBytes)),
		slog.Duration("elapsed", time.Since(start)))

	return imageBytes, nil
}
