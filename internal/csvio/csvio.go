// Package csvio reads and writes the pipeline's interchange files:
// the canonical eight-column dataset, the extended variant with
// analytic columns, and the coverage report.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/macrolens/harmonizer/models"
)

// Header is the canonical column set of the merged dataset.
var Header = []string{"metric_name", "series_id", "type", "category", "unit", "frequency", "value", "period_date"}

// ExtendedHeader adds the analytic columns of the historical variant.
var ExtendedHeader = append(append([]string{}, Header...),
	"release_date", "prior_value", "monthly_change", "annual_change", "z_score_12m", "three_month_annualized")

// CoverageHeader is the column set of the coverage report.
var CoverageHeader = []string{"metric_name", "series_id", "min_date", "max_date", "n_obs", "n_years"}

const dateLayout = "2006-01-02"

// ReadRecords loads an existing history file. A missing file is not
// an error: it reads as an empty history. Rows with unparseable
// dates are dropped; blank or unparseable values stay as rows with
// an absent value, matching how gaps are stored.
func ReadRecords(path string) ([]models.HarmonizedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := columnIndex(rows[0])
	var records []models.HarmonizedRecord
	dropped := 0
	for _, row := range rows[1:] {
		date, err := parseDate(field(row, col, "period_date"))
		if err != nil {
			dropped++
			continue
		}
		r := models.HarmonizedRecord{
			MetricName: field(row, col, "metric_name"),
			SeriesID:   field(row, col, "series_id"),
			Type:       field(row, col, "type"),
			Category:   field(row, col, "category"),
			Unit:       field(row, col, "unit"),
			Frequency:  field(row, col, "frequency"),
			PeriodDate: date,
		}
		if v, err := strconv.ParseFloat(field(row, col, "value"), 64); err == nil {
			r.Value = v
			r.Valid = true
		}
		records = append(records, r)
	}
	if dropped > 0 {
		log.Warn().Str("path", path).Int("dropped", dropped).Msg("Dropped rows with unparseable dates")
	}
	return records, nil
}

// WriteRecords writes the canonical merged dataset.
func WriteRecords(path string, records []models.HarmonizedRecord) error {
	return writeCSV(path, Header, len(records), func(i int) []string {
		r := records[i]
		return []string{
			r.MetricName, r.SeriesID, r.Type, r.Category, r.Unit, r.Frequency,
			formatValue(r.Value, r.Valid),
			r.PeriodDate.Format(dateLayout),
		}
	})
}

// WriteExtended writes the historical variant with analytic columns.
func WriteExtended(path string, records []models.HistoricalRecord) error {
	return writeCSV(path, ExtendedHeader, len(records), func(i int) []string {
		r := records[i]
		return []string{
			r.MetricName, r.SeriesID, r.Type, r.Category, r.Unit, r.Frequency,
			formatValue(r.Value, r.Valid),
			r.PeriodDate.Format(dateLayout),
			r.ReleaseDate.Format(dateLayout),
			formatNullable(r.PriorValue),
			formatNullable(r.MonthlyChange),
			formatNullable(r.AnnualChange),
			formatNullable(r.ZScore12M),
			formatNullable(r.ThreeMonthAnnualized),
		}
	})
}

// WriteCoverage writes the per-series coverage report.
func WriteCoverage(path string, rows []models.CoverageRow) error {
	return writeCSV(path, CoverageHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.MetricName, r.SeriesID,
			r.MinDate.Format(dateLayout),
			r.MaxDate.Format(dateLayout),
			strconv.Itoa(r.NObs),
			strconv.Itoa(r.NYears),
		}
	})
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}

func formatValue(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// columnIndex maps header names to positions so column order in the
// input file does not matter.
func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseDate accepts the plain date layout plus the timestamp forms
// older exports used.
func parseDate(s string) (time.Time, error) {
	s = strings.Trim(s, `"`)
	for _, layout := range []string{dateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
