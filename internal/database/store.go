// Package database persists the merged dataset to Postgres. The
// table is keyed on (series_id, period_date); imports are one
// transaction with a single upsert per row, so a conflict overwrites
// the mutable analytic columns and a failure rolls the whole batch
// back.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/macrolens/harmonizer/models"
)

// Store wraps the historical table.
type Store struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// New opens a connection from a DATABASE_URL style DSN and creates
// the table if it does not exist.
func New(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Store{
		db:     db,
		logger: log.With().Str("component", "store").Logger(),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS economic_indicators_history (
			id BIGSERIAL PRIMARY KEY,
			metric_name TEXT NOT NULL,
			series_id TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL DEFAULT '',
			frequency TEXT NOT NULL DEFAULT '',
			value DOUBLE PRECISION NOT NULL,
			period_date DATE NOT NULL,
			release_date DATE,
			prior_value DOUBLE PRECISION,
			monthly_change DOUBLE PRECISION,
			annual_change DOUBLE PRECISION,
			z_score_12m DOUBLE PRECISION,
			three_month_annualized DOUBLE PRECISION,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (series_id, period_date)
		)
	`)
	return err
}

// historyRow maps one table row for sqlx.
type historyRow struct {
	MetricName           string          `db:"metric_name"`
	SeriesID             string          `db:"series_id"`
	Type                 string          `db:"type"`
	Category             string          `db:"category"`
	Unit                 string          `db:"unit"`
	Frequency            string          `db:"frequency"`
	Value                float64         `db:"value"`
	PeriodDate           string          `db:"period_date"`
	ReleaseDate          string          `db:"release_date"`
	PriorValue           sql.NullFloat64 `db:"prior_value"`
	MonthlyChange        sql.NullFloat64 `db:"monthly_change"`
	AnnualChange         sql.NullFloat64 `db:"annual_change"`
	ZScore12M            sql.NullFloat64 `db:"z_score_12m"`
	ThreeMonthAnnualized sql.NullFloat64 `db:"three_month_annualized"`
}

const upsertQuery = `
	INSERT INTO economic_indicators_history
		(metric_name, series_id, type, category, unit, frequency, value, period_date,
		 release_date, prior_value, monthly_change, annual_change, z_score_12m,
		 three_month_annualized, created_at, updated_at)
	VALUES
		(:metric_name, :series_id, :type, :category, :unit, :frequency, :value, :period_date,
		 :release_date, :prior_value, :monthly_change, :annual_change, :z_score_12m,
		 :three_month_annualized, NOW(), NOW())
	ON CONFLICT (series_id, period_date)
	DO UPDATE SET
		value = EXCLUDED.value,
		prior_value = EXCLUDED.prior_value,
		monthly_change = EXCLUDED.monthly_change,
		annual_change = EXCLUDED.annual_change,
		z_score_12m = EXCLUDED.z_score_12m,
		three_month_annualized = EXCLUDED.three_month_annualized,
		updated_at = NOW()`

// ImportHistory upserts a batch of enriched records inside one
// transaction. Records with an absent value are skipped: the table
// stores readings, not gaps. Any failure rolls the batch back.
func (s *Store) ImportHistory(ctx context.Context, records []models.HistoricalRecord) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, r := range records {
		if !r.Valid {
			continue
		}
		row := historyRow{
			MetricName:           r.MetricName,
			SeriesID:             r.SeriesID,
			Type:                 r.Type,
			Category:             r.Category,
			Unit:                 r.Unit,
			Frequency:            r.Frequency,
			Value:                r.Value,
			PeriodDate:           r.PeriodDate.Format("2006-01-02"),
			ReleaseDate:          r.ReleaseDate.Format("2006-01-02"),
			PriorValue:           nullable(r.PriorValue),
			MonthlyChange:        nullable(r.MonthlyChange),
			AnnualChange:         nullable(r.AnnualChange),
			ZScore12M:            nullable(r.ZScore12M),
			ThreeMonthAnnualized: nullable(r.ThreeMonthAnnualized),
		}
		if _, err := tx.NamedExecContext(ctx, upsertQuery, row); err != nil {
			return 0, fmt.Errorf("upserting %s@%s: %w", r.SeriesID, row.PeriodDate, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}

	s.logger.Info().Int("imported", imported).Int("skipped", len(records)-imported).Msg("History import committed")
	return imported, nil
}

// SeriesCounts reports row counts per series, largest first. Used for
// post-import verification.
func (s *Store) SeriesCounts(ctx context.Context, limit int) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT series_id, COUNT(*) AS n
		FROM economic_indicators_history
		GROUP BY series_id
		ORDER BY n DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying series counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var seriesID string
		var n int
		if err := rows.Scan(&seriesID, &n); err != nil {
			return nil, fmt.Errorf("scanning series count: %w", err)
		}
		counts[seriesID] = n
	}
	return counts, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
