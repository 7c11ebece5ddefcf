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

// SolveImageService renders solve announcement cards by screenshotting an
// HTML template in headless Chrome.
type SolveImageService struct {
	logger *slog.Logger
	tmpl   *template.Template
}

type SolveImageData struct {
	Username      string
	Score         int
	ChallengeName string
	Category      string
	Points        int
	ServerRank    int
	IsFirstBlood  bool
	Timestamp     string
}

const solveTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
  body { margin: 0; background: transparent; font-family: 'Segoe UI', sans-serif; }
  #solve-container {
    width: 560px; padding: 28px; border-radius: 14px;
    background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
    color: #eaeaea;
  }
  .banner { font-size: 22px; font-weight: 700; margin-bottom: 12px; }
  .banner.first-blood { color: #ff4757; }
  .banner.solved { color: #2ed573; }
  .challenge { font-size: 28px; font-weight: 700; margin-bottom: 6px; }
  .meta { font-size: 15px; color: #a4b0be; margin-bottom: 18px; }
  .solver { display: flex; justify-content: space-between; font-size: 16px; }
  .score { color: #ffa502; }
  .footer { margin-top: 18px; font-size: 12px; color: #57606f; }
</style>
</head>
<body>
<div id="solve-container">
  {{if .IsFirstBlood}}<div class="banner first-blood">🩸 First Blood!</div>
  {{else}}<div class="banner solved">🎉 Challenge Solved!</div>{{end}}
  <div class="challenge">{{.ChallengeName}}</div>
  <div class="meta">{{.Category}} · {{.Points}} pts{{if .ServerRank}} · server solver #{{.ServerRank}}{{end}}</div>
  <div class="solver">
    <span>{{.Username}}</span>
    <span class="score">{{.Score}} pts total</span>
  </div>
  <div class="footer">CryptoHack · {{.Timestamp}}</div>
</div>
</body>
</html>`

func NewSolveImageService() *SolveImageService {
	service := &SolveImageService{
		logger: slog.With(slog.String("service", "solve_image")),
		tmpl:   template.Must(template.New("solve").Parse(solveTemplate)),
	}
	service.testChromedpAvailability()
	return service
}

func (s *SolveImageService) testChromedpAvailability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chromedpCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	err := chromedp.Run(chromedpCtx, chromedp.Navigate("data:text/html,<html><body>test</body></html>"))
	if err != nil {
		s.logger.Error("chromedp not available - image generation will fail",
			slog.String("error", err.Error()))
	}
}

func (s *SolveImageService) GenerateSolveImage(ctx context.Context, data SolveImageData) ([]byte, error) {
	start := time.Now()

	if data.Timestamp == "" {
		data.Timestamp = time.Now().Format("15:04 MST")
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render solve template: %w", err)
	}

	chromedpCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	chromedpCtx, cancel = context.WithTimeout(chromedpCtx, 15*time.Second)
	defer cancel()

	var imageBytes []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate("data:text/html,"+buf.String()),
		chromedp.WaitVisible("#solve-container", chromedp.ByID),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.Screenshot("#solve-container", &imageBytes, chromedp.ByID),
	)
	if err != nil {
		s.logger.Error("Failed to generate solve image",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	s.logger.Debug("Solve image generated",
		slog.String("challenge", data.ChallengeName),
		slog.Int("image_size", len(imageBytes)),
		slog.Duration("elapsed", time.Since(start)))

	return imageBytes, nil
}
