// Package harmonize implements the core of the pipeline: frequency
// normalization onto the monthly calendar grid, derived-metric
// computation, merge/dedup against the historical dataset, and the
// coverage report.
package harmonize

import (
	"sort"
	"time"

	"github.com/macrolens/harmonizer/models"
)

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// sortByDate returns a copy sorted ascending by date. Input order is
// preserved for equal dates so the later occurrence still wins when
// grouping.
func sortByDate(obs []models.Observation) []models.Observation {
	out := make([]models.Observation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// NormalizeMonthly converts a series onto the monthly grid. Daily,
// weekly and biweekly input is grouped by calendar month, the
// observation with the latest date in each month survives, and the
// row is re-dated to that month's final day. Monthly and coarser
// input passes through unchanged (sorted). No rows are invented for
// missing months.
func NormalizeMonthly(obs []models.Observation, native models.Frequency) []models.Observation {
	sorted := sortByDate(obs)

	switch native {
	case models.Daily, models.Weekly, models.Biweekly:
		return lastPerMonth(sorted)
	default:
		return sorted
	}
}

// lastPerMonth keeps the last observation of each calendar month,
// re-dated to month end. Input must be sorted ascending.
func lastPerMonth(sorted []models.Observation) []models.Observation {
	type monthKey struct {
		year  int
		month time.Month
	}

	byMonth := make(map[monthKey]models.Observation)
	var order []monthKey
	for _, o := range sorted {
		key := monthKey{o.Date.Year(), o.Date.Month()}
		if _, seen := byMonth[key]; !seen {
			order = append(order, key)
		}
		// Later date wins within the month; the input is sorted, so
		// every observation simply overwrites its predecessor.
		byMonth[key] = o
	}

	out := make([]models.Observation, 0, len(order))
	for _, key := range order {
		o := byMonth[key]
		o.Date = MonthEnd(o.Date)
		out = append(out, o)
	}
	return out
}
