package notify

import (
	"strings"
	"testing"

	"github.com/macrolens/harmonizer/models"
)

func TestFormatSummary(t *testing.T) {
	summary := models.RunSummary{
		RunID:         "run-42",
		MetricsTotal:  70,
		MetricsLoaded: 68,
		Skipped:       []string{"Leading Economic Index", "Broken Metric"},
		RowsFetched:   8160,
		RowsMerged:    8400,
		ByType:        map[string]int{"leading": 20, "coincident": 25, "lagging": 23},
		ByCategory:    map[string]int{"Labor": 12, "Inflation": 9},
		ByFrequency:   map[string]int{"Monthly": 60, "Quarterly": 8},
		OutputPath:    "merged.csv",
		CoveragePath:  "merged_coverage.csv",
	}

	got := FormatSummary(summary)
	for _, want := range []string{
		"Economic data run run-42",
		"Metrics: 68/70 loaded, 2 skipped",
		"Rows: 8160 fetched, 8400 merged",
		"By type: coincident=25 lagging=23 leading=20",
		"By category: Inflation=9 Labor=12",
		"By frequency: Monthly=60 Quarterly=8",
		"Skipped: Leading Economic Index, Broken Metric",
		"Dataset: merged.csv",
		"Coverage: merged_coverage.csv",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestFormatSummaryOmitsEmptySections(t *testing.T) {
	got := FormatSummary(models.RunSummary{RunID: "run-1", MetricsTotal: 1, MetricsLoaded: 1})

	for _, absent := range []string{"By type", "Skipped:", "Dataset:", "Coverage:"} {
		if strings.Contains(got, absent) {
			t.Errorf("summary should not contain %q:\n%s", absent, got)
		}
	}
}

func TestFormatSummaryBlankKeyReadsAsNone(t *testing.T) {
	got := FormatSummary(models.RunSummary{
		RunID:  "run-1",
		ByType: map[string]int{"": 3},
	})
	if !strings.Contains(got, "By type: (none)=3") {
		t.Errorf("blank key not rendered: %s", got)
	}
}
