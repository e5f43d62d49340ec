// Package analytics computes the extended columns of the historical
// store: prior reading, monthly and annual change, 12-month z-score,
// and the 3-month annualized rate. All lookbacks are calendar-aware
// on the monthly grid; a missing target month simply yields a null
// column, never a positional guess.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/macrolens/harmonizer/models"
)

// zWindow is how many trailing readings feed the z-score.
const zWindow = 12

// Enrich derives the analytic columns for every record, series by
// series. Input order does not matter; output keeps the merge order
// of the input slice.
func Enrich(records []models.HarmonizedRecord) []models.HistoricalRecord {
	// Group by metric AND series: several metrics can share one base
	// series id (a raw index and its derived YoY both carry it) and
	// their histories must not blend.
	type seriesKey struct {
		metricName string
		seriesID   string
	}
	bySeries := make(map[seriesKey][]models.HarmonizedRecord)
	for _, r := range records {
		key := seriesKey{r.MetricName, r.SeriesID}
		bySeries[key] = append(bySeries[key], r)
	}

	enrichedByKey := make(map[recordKey]models.HistoricalRecord, len(records))
	for _, series := range bySeries {
		for _, e := range enrichSeries(series) {
			enrichedByKey[keyFor(e.HarmonizedRecord)] = e
		}
	}

	out := make([]models.HistoricalRecord, 0, len(records))
	for _, r := range records {
		out = append(out, enrichedByKey[keyFor(r)])
	}
	return out
}

type recordKey struct {
	metricName string
	seriesID   string
	periodDate time.Time
}

func keyFor(r models.HarmonizedRecord) recordKey {
	return recordKey{r.MetricName, r.SeriesID, r.PeriodDate}
}

func enrichSeries(series []models.HarmonizedRecord) []models.HistoricalRecord {
	sorted := make([]models.HarmonizedRecord, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PeriodDate.Before(sorted[j].PeriodDate) })

	byMonth := make(map[yearMonth]models.HarmonizedRecord, len(sorted))
	for _, r := range sorted {
		byMonth[monthOf(r.PeriodDate)] = r
	}

	out := make([]models.HistoricalRecord, 0, len(sorted))
	validSoFar := make([]float64, 0, len(sorted))
	for _, r := range sorted {
		e := models.HistoricalRecord{HarmonizedRecord: r, ReleaseDate: r.PeriodDate}
		if r.Valid {
			validSoFar = append(validSoFar, r.Value)
			step := priorStep(r.Frequency)
			e.PriorValue = valueAt(byMonth, r.PeriodDate, step)
			e.MonthlyChange = pctChangeFrom(e.PriorValue, r.Value)
			e.AnnualChange = pctChangeFrom(valueAt(byMonth, r.PeriodDate, 12), r.Value)
			e.ThreeMonthAnnualized = annualized(valueAt(byMonth, r.PeriodDate, 3), r.Value)
			e.ZScore12M = zScore(validSoFar, r.Value)
		}
		out = append(out, e)
	}
	return out
}

// priorStep is the calendar distance to the prior reading.
func priorStep(frequency string) int {
	if strings.EqualFold(frequency, "quarterly") {
		return 3
	}
	return 1
}

// valueAt looks up the valid reading `months` calendar months before d.
func valueAt(byMonth map[yearMonth]models.HarmonizedRecord, d time.Time, months int) *float64 {
	r, ok := byMonth[monthOf(d).back(months)]
	if !ok || !r.Valid {
		return nil
	}
	v := r.Value
	return &v
}

func pctChangeFrom(prev *float64, current float64) *float64 {
	if prev == nil || *prev == 0 {
		return nil
	}
	change := (current/(*prev) - 1) * 100
	return &change
}

// annualized compounds the 3-month growth rate to an annual rate.
func annualized(prev *float64, current float64) *float64 {
	if prev == nil || *prev == 0 {
		return nil
	}
	rate := (math.Pow(current/(*prev), 4) - 1) * 100
	return &rate
}

// zScore measures how far current sits from the mean of the trailing
// window (population standard deviation, current included). Nil until
// a full window exists or while the series is flat.
func zScore(history []float64, current float64) *float64 {
	if len(history) < zWindow {
		return nil
	}
	window := history[len(history)-zWindow:]

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))

	var sq float64
	for _, v := range window {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(window)))
	if std == 0 {
		return nil
	}
	z := (current - mean) / std
	return &z
}

type yearMonth struct {
	year  int
	month time.Month
}

func monthOf(t time.Time) yearMonth {
	return yearMonth{t.Year(), t.Month()}
}

func (ym yearMonth) back(n int) yearMonth {
	idx := ym.year*12 + int(ym.month) - 1 - n
	return yearMonth{idx / 12, time.Month(idx%12 + 1)}
}
