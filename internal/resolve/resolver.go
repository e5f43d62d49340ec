// Package resolve decides which concrete FRED series answers a named
// metric: a curated override id when the catalog has one, otherwise
// the best-scored hit of a ranked series search.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/macrolens/harmonizer/models"
)

// ErrNotFound means no series answers the metric; callers skip the
// metric and keep the run going.
var ErrNotFound = errors.New("no series found for metric")

// ErrDerived means the metric is computed from base series rather
// than resolved to a single raw id.
var ErrDerived = errors.New("metric is derived")

// Searcher is the slice of the FRED client the resolver needs.
type Searcher interface {
	SearchSeries(ctx context.Context, query string, seasonallyAdjusted bool) ([]models.SeriesCandidate, error)
}

// Resolver maps metric definitions to raw series ids.
type Resolver struct {
	searcher Searcher
	preferSA bool
	logger   zerolog.Logger
}

// New creates a resolver. preferSA restricts searches to seasonally
// adjusted candidates.
func New(searcher Searcher, preferSA bool) *Resolver {
	return &Resolver{
		searcher: searcher,
		preferSA: preferSA,
		logger:   log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the raw series id for a metric. Derived metrics
// return ErrDerived so the caller dispatches to the derived engine;
// unresolvable metrics return ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, metric models.MetricDefinition) (string, error) {
	switch comp := metric.Computation.(type) {
	case models.DirectSeries:
		return comp.SeriesID, nil
	case models.Derived:
		return "", ErrDerived
	case models.SearchQuery:
		return r.search(ctx, metric.Name, comp.Query)
	default:
		return "", fmt.Errorf("metric %q: unknown computation variant %T", metric.Name, metric.Computation)
	}
}

func (r *Resolver) search(ctx context.Context, metric, query string) (string, error) {
	candidates, err := r.searcher.SearchSeries(ctx, query, r.preferSA)
	if err != nil {
		// Transport failure reads as "no data" here, not a crash.
		r.logger.Warn().Err(err).Str("metric", metric).Msg("Series search failed")
		return "", ErrNotFound
	}
	best, ok := ChooseBest(candidates)
	if !ok {
		return "", ErrNotFound
	}
	r.logger.Debug().Str("metric", metric).Str("series_id", best.ID).Msg("Resolved via search")
	return best.ID, nil
}

// ChooseBest picks the highest-scored candidate: seasonal adjustment
// first, then popularity, then finer frequency, then most recent
// last_updated. Ties keep the earlier candidate in scan order.
func ChooseBest(candidates []models.SeriesCandidate) (models.SeriesCandidate, bool) {
	if len(candidates) == 0 {
		return models.SeriesCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if beats(c, best) {
			best = c
		}
	}
	return best, true
}

// beats reports whether a scores strictly higher than b.
func beats(a, b models.SeriesCandidate) bool {
	if a.SeasonallyAdjusted != b.SeasonallyAdjusted {
		return a.SeasonallyAdjusted
	}
	if a.Popularity != b.Popularity {
		return a.Popularity > b.Popularity
	}
	if a.Frequency.Weight() != b.Frequency.Weight() {
		return a.Frequency.Weight() < b.Frequency.Weight()
	}
	return a.LastUpdated > b.LastUpdated
}
