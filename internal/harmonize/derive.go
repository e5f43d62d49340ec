package harmonize

import (
	"fmt"
	"math"
	"time"

	"github.com/macrolens/harmonizer/models"
)

// spreadTolerance is how far apart two observations may be dated and
// still count as the same reading when aligning series for a spread.
const spreadTolerance = 48 * time.Hour

// Compute evaluates a derived spec over its normalized base series.
// Spread takes two inputs; every other kind takes one. Rows whose
// computation would divide by zero or touch a missing value are
// emitted with an invalid value rather than dropped.
func Compute(spec models.Derived, base []models.Observation, second []models.Observation) ([]models.Observation, error) {
	switch spec.Kind {
	case models.Spread:
		return ComputeSpread(base, second), nil
	case models.YoYPercent:
		return percentChange(base, 12), nil
	case models.MoMPercent:
		return percentChange(base, 1), nil
	case models.AnnualizedQoQ:
		return annualizedQoQ(base), nil
	default:
		return nil, fmt.Errorf("unknown derived kind %q", spec.Kind)
	}
}

// ComputeSpread aligns a against b by nearest date within the
// tolerance and emits a-b at a's dates. Rows of a with no b match in
// range are discarded. The result is then collapsed onto the monthly
// grid with the usual last-in-month rule.
func ComputeSpread(a, b []models.Observation) []models.Observation {
	a = sortByDate(a)
	b = sortByDate(b)

	var out []models.Observation
	j := 0
	for _, oa := range a {
		// Advance j to the first b not before oa; the nearest match
		// is that one or its predecessor.
		for j < len(b) && b[j].Date.Before(oa.Date) {
			j++
		}
		ob, ok := nearest(b, j, oa.Date)
		if !ok {
			continue
		}
		o := models.Observation{
			SeriesID: oa.SeriesID + "-" + ob.SeriesID,
			Date:     oa.Date,
		}
		if oa.Valid && ob.Valid {
			o.Value = oa.Value - ob.Value
			o.Valid = true
		}
		out = append(out, o)
	}
	return lastPerMonth(out)
}

// nearest picks the closer of b[j-1] and b[j] to target, within the
// spread tolerance.
func nearest(b []models.Observation, j int, target time.Time) (models.Observation, bool) {
	best := models.Observation{}
	bestDist := spreadTolerance + 1
	for _, k := range []int{j - 1, j} {
		if k < 0 || k >= len(b) {
			continue
		}
		dist := target.Sub(b[k].Date)
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best = b[k]
			bestDist = dist
		}
	}
	if bestDist > spreadTolerance {
		return models.Observation{}, false
	}
	return best, true
}

// percentChange computes the percent change against the reading
// `months` calendar months earlier on the monthly grid. Positions
// with no reading that far back produce no row; zero or missing
// divisors produce an invalid row.
func percentChange(base []models.Observation, months int) []models.Observation {
	sorted := sortByDate(base)
	index := indexByMonth(sorted)

	var out []models.Observation
	for _, o := range sorted {
		prev, ok := index[monthOf(o.Date).back(months)]
		if !ok {
			continue
		}
		r := models.Observation{SeriesID: o.SeriesID, Date: o.Date}
		if o.Valid && prev.Valid && prev.Value != 0 {
			r.Value = (o.Value/prev.Value - 1) * 100
			r.Valid = true
		}
		out = append(out, r)
	}
	return out
}

// annualizedQoQ compounds the quarter-over-quarter growth rate to an
// annual rate: ((q/q-1)^4 - 1) * 100. The prior reading is looked up
// three calendar months back, not by slice position.
func annualizedQoQ(base []models.Observation) []models.Observation {
	sorted := sortByDate(base)
	index := indexByMonth(sorted)

	var out []models.Observation
	for _, o := range sorted {
		prev, ok := index[monthOf(o.Date).back(3)]
		if !ok {
			continue
		}
		r := models.Observation{SeriesID: o.SeriesID, Date: o.Date}
		if o.Valid && prev.Valid && prev.Value != 0 {
			r.Value = (math.Pow(o.Value/prev.Value, 4) - 1) * 100
			r.Valid = true
		}
		out = append(out, r)
	}
	return out
}

type yearMonth struct {
	year  int
	month time.Month
}

func monthOf(t time.Time) yearMonth {
	return yearMonth{t.Year(), t.Month()}
}

// back steps n calendar months backward. Plain AddDate would slide
// month-end dates into the next month (Mar 31 - 1 month = Mar 3).
func (ym yearMonth) back(n int) yearMonth {
	idx := ym.year*12 + int(ym.month) - 1 - n
	return yearMonth{idx / 12, time.Month(idx%12 + 1)}
}

// indexByMonth maps each calendar month to its (last) observation.
func indexByMonth(sorted []models.Observation) map[yearMonth]models.Observation {
	index := make(map[yearMonth]models.Observation, len(sorted))
	for _, o := range sorted {
		index[monthOf(o.Date)] = o
	}
	return index
}
