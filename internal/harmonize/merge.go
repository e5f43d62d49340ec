package harmonize

import (
	"sort"
	"strings"
	"time"

	"github.com/macrolens/harmonizer/models"
)

// Window restricts freshly fetched rows to a retention horizon before
// they are merged. It never touches rows already in the history.
type Window struct {
	Min time.Time
	Max time.Time
}

// Contains reports whether d falls inside the window. A zero Min or
// Max leaves that side open.
func (w Window) Contains(d time.Time) bool {
	if !w.Min.IsZero() && d.Before(w.Min) {
		return false
	}
	if !w.Max.IsZero() && d.After(w.Max) {
		return false
	}
	return true
}

// dedupKey identifies a record for merge purposes: every field except
// the mutable value. Rows sharing the key collapse to the most
// recently produced one, so retroactive corrections win and reruns
// are idempotent.
type dedupKey struct {
	metricName string
	seriesID   string
	typ        string
	category   string
	unit       string
	frequency  string
	periodDate time.Time
}

func keyOf(r models.HarmonizedRecord) dedupKey {
	return dedupKey{
		metricName: r.MetricName,
		seriesID:   r.SeriesID,
		typ:        r.Type,
		category:   r.Category,
		unit:       r.Unit,
		frequency:  r.Frequency,
		periodDate: r.PeriodDate,
	}
}

// Merge combines the existing history with a freshly computed batch.
// The incoming batch is optionally constrained to the retention
// window, appended after the existing rows, and deduplicated with
// "last occurrence wins". String fields are trimmed so consumers
// never see null-like sentinels. Output is sorted ascending by
// (metric_name, series_id, period_date), first-seen order on ties.
func Merge(existing, incoming []models.HarmonizedRecord, window *Window) []models.HarmonizedRecord {
	if window != nil {
		kept := make([]models.HarmonizedRecord, 0, len(incoming))
		for _, r := range incoming {
			if window.Contains(r.PeriodDate) {
				kept = append(kept, r)
			}
		}
		incoming = kept
	}

	merged := make([]models.HarmonizedRecord, 0, len(existing)+len(incoming))
	position := make(map[dedupKey]int, len(existing)+len(incoming))

	for _, r := range append(append([]models.HarmonizedRecord{}, existing...), incoming...) {
		r = normalizeStrings(r)
		key := keyOf(r)
		if i, seen := position[key]; seen {
			merged[i] = r // later occurrence wins, position keeps first-seen order
			continue
		}
		position[key] = len(merged)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.MetricName != b.MetricName {
			return a.MetricName < b.MetricName
		}
		if a.SeriesID != b.SeriesID {
			return a.SeriesID < b.SeriesID
		}
		return a.PeriodDate.Before(b.PeriodDate)
	})
	return merged
}

func normalizeStrings(r models.HarmonizedRecord) models.HarmonizedRecord {
	r.MetricName = strings.TrimSpace(r.MetricName)
	r.SeriesID = strings.TrimSpace(r.SeriesID)
	r.Type = strings.TrimSpace(r.Type)
	r.Category = strings.TrimSpace(r.Category)
	r.Unit = strings.TrimSpace(r.Unit)
	r.Frequency = strings.TrimSpace(r.Frequency)
	return r
}
