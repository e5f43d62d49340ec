package harmonize

import (
	"sort"

	"github.com/macrolens/harmonizer/models"
)

// Summarize aggregates the merged dataset into one row per
// (metric_name, series_id): date range, observation count, and the
// number of distinct calendar years covered. Rows missing a metric
// name, series id, or period date are dropped before grouping.
func Summarize(records []models.HarmonizedRecord) []models.CoverageRow {
	type groupKey struct {
		metricName string
		seriesID   string
	}

	groups := make(map[groupKey]*models.CoverageRow)
	years := make(map[groupKey]map[int]struct{})

	for _, r := range records {
		if r.MetricName == "" || r.SeriesID == "" || r.PeriodDate.IsZero() {
			continue
		}
		key := groupKey{r.MetricName, r.SeriesID}
		row, ok := groups[key]
		if !ok {
			groups[key] = &models.CoverageRow{
				MetricName: r.MetricName,
				SeriesID:   r.SeriesID,
				MinDate:    r.PeriodDate,
				MaxDate:    r.PeriodDate,
			}
			years[key] = make(map[int]struct{})
			row = groups[key]
		}
		if r.PeriodDate.Before(row.MinDate) {
			row.MinDate = r.PeriodDate
		}
		if r.PeriodDate.After(row.MaxDate) {
			row.MaxDate = r.PeriodDate
		}
		row.NObs++
		years[key][r.PeriodDate.Year()] = struct{}{}
	}

	out := make([]models.CoverageRow, 0, len(groups))
	for key, row := range groups {
		row.NYears = len(years[key])
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MetricName != out[j].MetricName {
			return out[i].MetricName < out[j].MetricName
		}
		return out[i].SeriesID < out[j].SeriesID
	})
	return out
}
