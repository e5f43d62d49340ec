// Package notify pushes the end-of-run summary to a Telegram chat.
// The notifier is optional; runs without a configured token simply
// skip it.
package notify

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/macrolens/harmonizer/models"
)

// Telegram delivers run summaries to one chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notify").Logger(),
	}, nil
}

// SendSummary formats and sends the run summary.
func (t *Telegram) SendSummary(summary models.RunSummary) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(summary))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending summary: %w", err)
	}
	t.logger.Info().Str("run_id", summary.RunID).Msg("Summary sent")
	return nil
}

// FormatSummary renders the summary as plain text, one section per
// grouping, with alphabetical keys so messages are comparable between
// runs.
func FormatSummary(summary models.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Economic data run %s\n", summary.RunID)
	fmt.Fprintf(&b, "Metrics: %d/%d loaded, %d skipped\n",
		summary.MetricsLoaded, summary.MetricsTotal, len(summary.Skipped))
	fmt.Fprintf(&b, "Rows: %d fetched, %d merged\n", summary.RowsFetched, summary.RowsMerged)

	writeCounts(&b, "By type", summary.ByType)
	writeCounts(&b, "By category", summary.ByCategory)
	writeCounts(&b, "By frequency", summary.ByFrequency)

	if len(summary.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped: %s\n", strings.Join(summary.Skipped, ", "))
	}
	if summary.OutputPath != "" {
		fmt.Fprintf(&b, "Dataset: %s\n", summary.OutputPath)
	}
	if summary.CoveragePath != "" {
		fmt.Fprintf(&b, "Coverage: %s\n", summary.CoveragePath)
	}
	return b.String()
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "%s:", title)
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(b, " %s=%d", name, counts[k])
	}
	b.WriteString("\n")
}
