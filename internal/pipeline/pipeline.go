// Package pipeline wires the run together: walk the catalog, resolve
// each metric to raw series, fetch, normalize frequencies, compute
// derived metrics, and merge the batch into the existing history.
// Per-metric failures skip that metric; only a run that collects
// nothing at all is fatal.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/macrolens/harmonizer/internal/harmonize"
	"github.com/macrolens/harmonizer/internal/resolve"
	"github.com/macrolens/harmonizer/models"
)

// ErrNoData is returned when a run fetches zero usable rows across
// every metric. Writing output in that state would truncate history
// on the next read, so the caller must abort before writing.
var ErrNoData = errors.New("no data fetched for any metric")

// Fetcher is the slice of the FRED client the pipeline needs.
type Fetcher interface {
	FetchSeries(ctx context.Context, seriesID string, start time.Time) ([]models.Observation, error)
	FetchSeriesInfo(ctx context.Context, seriesID string) (models.SeriesInfo, error)
	SearchSeries(ctx context.Context, query string, seasonallyAdjusted bool) ([]models.SeriesCandidate, error)
}

// Result is everything one run produces.
type Result struct {
	Merged   []models.HarmonizedRecord
	Coverage []models.CoverageRow
	Summary  models.RunSummary
}

// Pipeline runs the collect/harmonize/merge flow.
type Pipeline struct {
	fetcher  Fetcher
	resolver *resolve.Resolver
	cfg      *models.Config
	logger   zerolog.Logger
}

// New creates a pipeline over a fetcher.
func New(fetcher Fetcher, cfg *models.Config) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		resolver: resolve.New(fetcher, cfg.Seasonality == "SA"),
		cfg:      cfg,
		logger:   log.With().Str("component", "pipeline").Logger(),
	}
}

// Run collects every metric, merges the batch into existing history
// constrained by the retention window, and summarizes coverage.
// Metrics are fetched concurrently; they are logically independent
// and the client rate-limits the API for all of them.
func (p *Pipeline) Run(ctx context.Context, metrics []models.MetricDefinition, existing []models.HarmonizedRecord) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now()
	logger := p.logger.With().Str("run_id", runID).Logger()
	logger.Info().Int("metrics", len(metrics)).Int("existing_rows", len(existing)).Msg("Starting run")

	// Fetch a month more than the retention horizon so period-offset
	// computations have their lookback rows.
	start := monthStart(started.AddDate(-p.cfg.RetentionYears, -1, 0))

	fetched := make([][]models.HarmonizedRecord, len(metrics))
	var mu sync.Mutex
	var skipped []string

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers())
	for i, metric := range metrics {
		i, metric := i, metric
		group.Go(func() error {
			rows, err := p.collectMetric(gctx, metric, start)
			if err != nil {
				logger.Warn().Err(err).Str("metric", metric.Name).Msg("Skipping metric")
				mu.Lock()
				skipped = append(skipped, metric.Name)
				mu.Unlock()
				return nil
			}
			logger.Info().Str("metric", metric.Name).Int("rows", len(rows)).Msg("Collected metric")
			fetched[i] = rows
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var incoming []models.HarmonizedRecord
	for _, rows := range fetched {
		incoming = append(incoming, rows...)
	}
	if len(incoming) == 0 {
		return nil, ErrNoData
	}

	window := harmonize.Window{Min: harmonize.MonthEnd(started.AddDate(-p.cfg.RetentionYears, 0, 0))}
	merged := harmonize.Merge(existing, incoming, &window)
	coverage := harmonize.Summarize(merged)

	summary := p.summarize(runID, started, metrics, skipped, incoming, merged)
	logger.Info().
		Int("fetched_rows", len(incoming)).
		Int("merged_rows", len(merged)).
		Int("skipped_metrics", len(skipped)).
		Msg("Run finished")

	return &Result{Merged: merged, Coverage: coverage, Summary: summary}, nil
}

func (p *Pipeline) workers() int {
	if p.cfg.FetchWorkers > 0 {
		return p.cfg.FetchWorkers
	}
	return 1
}

// collectMetric turns one metric definition into harmonized rows.
func (p *Pipeline) collectMetric(ctx context.Context, metric models.MetricDefinition, start time.Time) ([]models.HarmonizedRecord, error) {
	if spec, ok := metric.Computation.(models.Derived); ok {
		return p.collectDerived(ctx, metric, spec, start)
	}
	return p.collectDirect(ctx, metric, start)
}

// collectDirect resolves the metric to one raw series and fetches it,
// collapsing sub-monthly cadences onto the monthly grid.
func (p *Pipeline) collectDirect(ctx context.Context, metric models.MetricDefinition, start time.Time) ([]models.HarmonizedRecord, error) {
	seriesID, err := p.resolver.Resolve(ctx, metric)
	if err != nil {
		return nil, err
	}

	obs, err := p.fetcher.FetchSeries(ctx, seriesID, start)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, errors.New("empty fetch result")
	}

	info, err := p.fetcher.FetchSeriesInfo(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	frequency := info.Frequency
	switch frequency {
	case models.Daily, models.Weekly, models.Biweekly:
		obs = harmonize.NormalizeMonthly(obs, frequency)
		frequency = models.Monthly
	default:
		obs = harmonize.NormalizeMonthly(obs, frequency) // defensive sort only
	}

	return p.assemble(metric, seriesID, info.Unit, frequency, obs), nil
}

// collectDerived fetches the base series and runs the derived
// computation over them.
func (p *Pipeline) collectDerived(ctx context.Context, metric models.MetricDefinition, spec models.Derived, start time.Time) ([]models.HarmonizedRecord, error) {
	base, err := p.fetcher.FetchSeries(ctx, spec.BaseSeries, start)
	if err != nil {
		return nil, err
	}
	if len(base) == 0 {
		return nil, errors.New("empty base series")
	}

	var second []models.Observation
	if spec.Kind == models.Spread {
		second, err = p.fetcher.FetchSeries(ctx, spec.SecondSeries, start)
		if err != nil {
			return nil, err
		}
		if len(second) == 0 {
			return nil, errors.New("empty second base series")
		}
	}

	derived, err := harmonize.Compute(spec, base, second)
	if err != nil {
		return nil, err
	}

	seriesID := spec.BaseSeries
	frequency := spec.Frequency
	if spec.Kind == models.Spread {
		seriesID = spec.BaseSeries + "-" + spec.SecondSeries
		frequency = models.Monthly // spread collapses to month-end
	}
	return p.assemble(metric, seriesID, spec.Unit, frequency, derived), nil
}

func (p *Pipeline) assemble(metric models.MetricDefinition, seriesID, unit string, frequency models.Frequency, obs []models.Observation) []models.HarmonizedRecord {
	records := make([]models.HarmonizedRecord, 0, len(obs))
	for _, o := range obs {
		records = append(records, models.HarmonizedRecord{
			MetricName: metric.Name,
			SeriesID:   seriesID,
			Type:       string(metric.Type),
			Category:   metric.Category,
			Unit:       unit,
			Frequency:  string(frequency),
			Value:      o.Value,
			Valid:      o.Valid,
			PeriodDate: o.Date,
		})
	}
	return records
}

func (p *Pipeline) summarize(runID string, started time.Time, metrics []models.MetricDefinition, skipped []string, incoming, merged []models.HarmonizedRecord) models.RunSummary {
	summary := models.RunSummary{
		RunID:         runID,
		Started:       started,
		MetricsTotal:  len(metrics),
		MetricsLoaded: len(metrics) - len(skipped),
		Skipped:       skipped,
		RowsFetched:   len(incoming),
		RowsMerged:    len(merged),
		ByType:        make(map[string]int),
		ByCategory:    make(map[string]int),
		ByFrequency:   make(map[string]int),
	}
	seen := make(map[string]models.HarmonizedRecord)
	for _, r := range incoming {
		if _, ok := seen[r.MetricName]; !ok {
			seen[r.MetricName] = r
		}
	}
	for _, r := range seen {
		summary.ByType[r.Type]++
		summary.ByCategory[r.Category]++
		summary.ByFrequency[r.Frequency]++
	}
	return summary
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
