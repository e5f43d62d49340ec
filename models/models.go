package models

import (
	"time"
)

// Config holds all runtime settings, loaded from the environment.
type Config struct {
	FREDAPIKey     string `envconfig:"FRED_API_KEY" required:"true"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	HistoryCSV     string `envconfig:"HISTORY_CSV" default:"economic_indicators_history.csv"`
	ExtraCSV       string `envconfig:"EXTRA_HISTORY_CSV"`
	OutputCSV      string `envconfig:"OUTPUT_CSV" default:"economic_indicators_merged_full_backfilled.csv"`
	RetentionYears int    `envconfig:"RETENTION_YEARS" default:"10"`
	Seasonality    string `envconfig:"SEASONALITY" default:"SA"`
	RequestTimeout int    `envconfig:"REQUEST_TIMEOUT" default:"30"` // seconds
	RequestsPerSec int    `envconfig:"REQUESTS_PER_SEC" default:"5"`
	FetchWorkers   int    `envconfig:"FETCH_WORKERS" default:"4"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// MetricType classifies an indicator by its timing relative to the
// business cycle.
type MetricType string

const (
	Leading    MetricType = "leading"
	Coincident MetricType = "coincident"
	Lagging    MetricType = "lagging"
)

// Frequency is a reporting cadence as FRED declares it.
type Frequency string

const (
	Daily     Frequency = "Daily"
	Weekly    Frequency = "Weekly"
	Biweekly  Frequency = "Biweekly"
	Monthly   Frequency = "Monthly"
	Quarterly Frequency = "Quarterly"
	Annual    Frequency = "Annual"
)

// Weight orders frequencies finest-first for candidate scoring.
// Unknown cadences rank after everything FRED normally reports.
func (f Frequency) Weight() int {
	switch f {
	case Daily:
		return 1
	case Weekly, Biweekly:
		return 2
	case Monthly:
		return 3
	case Quarterly:
		return 4
	case Annual:
		return 5
	default:
		return 10
	}
}

// Computation says how a metric's values are obtained. Exactly one of
// the three variants applies to each metric.
type Computation interface {
	computation()
}

// DirectSeries fetches one raw FRED series as-is.
type DirectSeries struct {
	SeriesID string
}

// SearchQuery resolves the series by ranked full-text search.
type SearchQuery struct {
	Query string
}

// DerivedKind enumerates the supported derived computations.
type DerivedKind string

const (
	Spread        DerivedKind = "spread"
	YoYPercent    DerivedKind = "yoy_pct"
	MoMPercent    DerivedKind = "mom_pct"
	AnnualizedQoQ DerivedKind = "qoq_annualized"
)

// Derived computes the metric from one or two base series.
type Derived struct {
	Kind         DerivedKind
	BaseSeries   string
	SecondSeries string // spread only
	Unit         string
	Frequency    Frequency
}

func (DirectSeries) computation() {}
func (SearchQuery) computation()  {}
func (Derived) computation()      {}

// MetricDefinition is one entry of the static metric catalog.
type MetricDefinition struct {
	Name        string
	Type        MetricType
	Category    string
	Computation Computation
}

// Observation is a single raw or derived reading. Valid is false for
// reporting gaps and non-numeric sentinels from the source.
type Observation struct {
	SeriesID string
	Date     time.Time
	Value    float64
	Valid    bool
}

// HarmonizedRecord is the unit of the merged historical dataset.
type HarmonizedRecord struct {
	MetricName string
	SeriesID   string
	Type       string
	Category   string
	Unit       string
	Frequency  string
	Value      float64
	Valid      bool
	PeriodDate time.Time
}

// CoverageRow summarizes one (metric, series) pair of the merged set.
type CoverageRow struct {
	MetricName string
	SeriesID   string
	MinDate    time.Time
	MaxDate    time.Time
	NObs       int
	NYears     int
}

// HistoricalRecord is the extended store row with analytic columns.
// Pointer fields map to nullable columns.
type HistoricalRecord struct {
	HarmonizedRecord
	ReleaseDate          time.Time
	PriorValue           *float64
	MonthlyChange        *float64
	AnnualChange         *float64
	ZScore12M            *float64
	ThreeMonthAnnualized *float64
}

// SeriesInfo is the metadata FRED reports for one series.
type SeriesInfo struct {
	ID        string
	Frequency Frequency
	Unit      string
}

// SeriesCandidate is one search hit considered by the resolver.
type SeriesCandidate struct {
	ID                 string
	Popularity         int
	SeasonallyAdjusted bool
	Frequency          Frequency
	LastUpdated        string
}

// RunSummary is the end-of-run report printed and optionally pushed
// to Telegram.
type RunSummary struct {
	RunID         string
	Started       time.Time
	MetricsTotal  int
	MetricsLoaded int
	Skipped       []string
	RowsFetched   int
	RowsMerged    int
	ByType        map[string]int
	ByCategory    map[string]int
	ByFrequency   map[string]int
	OutputPath    string
	CoveragePath  string
}
