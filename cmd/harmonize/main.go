package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/macrolens/harmonizer/internal/analytics"
	"github.com/macrolens/harmonizer/internal/api/fred"
	"github.com/macrolens/harmonizer/internal/catalog"
	"github.com/macrolens/harmonizer/internal/csvio"
	"github.com/macrolens/harmonizer/internal/database"
	"github.com/macrolens/harmonizer/internal/notify"
	"github.com/macrolens/harmonizer/internal/pipeline"
	"github.com/macrolens/harmonizer/models"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	var cfg models.Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	ctx := context.Background()

	existing, err := loadExisting(&cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading existing history failed")
	}

	client := fred.NewClient(fred.ClientOptions{
		APIKey:         cfg.FREDAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
	})

	result, err := pipeline.New(client, &cfg).Run(ctx, catalog.Definitions(), existing)
	if err != nil {
		// Nothing has been written yet; an empty merge would truncate
		// history on the next read, so this must be a hard stop.
		log.Fatal().Err(err).Msg("Run failed, no output written")
	}

	coveragePath := derivedPath(cfg.OutputCSV, "_coverage")
	extendedPath := derivedPath(cfg.OutputCSV, "_extended")

	if err := csvio.WriteRecords(cfg.OutputCSV, result.Merged); err != nil {
		log.Fatal().Err(err).Msg("Writing merged dataset failed")
	}
	if err := csvio.WriteCoverage(coveragePath, result.Coverage); err != nil {
		log.Fatal().Err(err).Msg("Writing coverage report failed")
	}

	enriched := analytics.Enrich(result.Merged)
	if err := csvio.WriteExtended(extendedPath, enriched); err != nil {
		log.Fatal().Err(err).Msg("Writing extended dataset failed")
	}

	if cfg.DatabaseURL != "" {
		importHistory(ctx, cfg.DatabaseURL, enriched)
	}

	result.Summary.OutputPath = cfg.OutputCSV
	result.Summary.CoveragePath = coveragePath
	fmt.Print(notify.FormatSummary(result.Summary))

	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram notifier unavailable")
		} else if err := notifier.SendSummary(result.Summary); err != nil {
			log.Warn().Err(err).Msg("Sending summary failed")
		}
	}
}

// loadExisting concatenates the history files that exist. Missing
// files read as empty history.
func loadExisting(cfg *models.Config) ([]models.HarmonizedRecord, error) {
	paths := []string{cfg.HistoryCSV}
	if cfg.ExtraCSV != "" {
		paths = append(paths, cfg.ExtraCSV)
	}

	var existing []models.HarmonizedRecord
	for _, path := range paths {
		records, err := csvio.ReadRecords(path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Int("rows", len(records)).Msg("Loaded history file")
		existing = append(existing, records...)
	}
	return existing, nil
}

// importHistory pushes the enriched dataset into Postgres. A failed
// transaction aborts the run with a non-zero exit; the store rolls
// back so nothing is half-written.
func importHistory(ctx context.Context, databaseURL string, enriched []models.HistoricalRecord) {
	store, err := database.New(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Connecting to store failed")
	}
	defer store.Close()

	imported, err := store.ImportHistory(ctx, enriched)
	if err != nil {
		log.Fatal().Err(err).Msg("History import failed, rolled back")
	}

	counts, err := store.SeriesCounts(ctx, 5)
	if err != nil {
		log.Warn().Err(err).Msg("Post-import verification failed")
		return
	}
	log.Info().Int("imported", imported).Interface("top_series", counts).Msg("Store import verified")
}

func derivedPath(out, suffix string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + suffix + ext
}
