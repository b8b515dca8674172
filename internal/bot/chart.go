package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/loanmate/loanmate-bot/internal/creditreport"
	"github.com/loanmate/loanmate-bot/internal/logger"
)

// GenerateEMIChart creates a pie chart of the user's EMI budget: current
// EMI against the remaining headroom within the safe limit.
// Returns PNG image as bytes.
func GenerateEMIChart(report *creditreport.Response) ([]byte, error) {
	current := report.DebtAnalysis.TotalCurrentEMI
	headroom := report.DebtAnalysis.SafeEMILimit - current
	if headroom < 0 {
		headroom = 0
	}
	if current <= 0 && headroom <= 0 {
		return nil, fmt.Errorf("no EMI figures to chart")
	}

	p, err := charts.PieRender(
		[]float64{current, headroom},
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("EMI Budget - Score %.0f (%s)",
				report.CreditStrength.Score, creditreport.ScoreBand(report.CreditStrength.Score).Label),
		}),
		charts.LegendLabelsOptionFunc([]string{"Current EMI", "Available headroom"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// chartFilename creates a dated filename for the report chart.
func chartFilename(now time.Time) string {
	return fmt.Sprintf("credit_report_%s.png", now.Format("2006-01-02"))
}

// sendScoreChart attaches the EMI breakdown chart to the report. Chart
// failures are logged, not surfaced; the text report already went out.
func (b *Bot) sendScoreChart(ctx context.Context, api TelegramAPI, chatID int64, report *creditreport.Response) {
	png, err := GenerateEMIChart(report)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to generate report chart")
		return
	}

	_, err = api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &tgmodels.InputFileUpload{
			Filename: chartFilename(time.Now()),
			Data:     bytes.NewReader(png),
		},
		Caption: "📈 Your EMI budget at a glance",
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send report chart")
	}
}
