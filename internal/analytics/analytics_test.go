package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/harmonizer/models"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func monthly(metric, series string, start time.Time, values ...float64) []models.HarmonizedRecord {
	out := make([]models.HarmonizedRecord, len(values))
	for i, v := range values {
		out[i] = models.HarmonizedRecord{
			MetricName: metric,
			SeriesID:   series,
			Frequency:  "Monthly",
			Value:      v,
			Valid:      true,
			PeriodDate: start.AddDate(0, i, 0),
		}
	}
	return out
}

func TestEnrichPriorAndChanges(t *testing.T) {
	records := monthly("Retail Sales MoM", "RSAFS", d(2024, 1, 1), 100, 110, 99)

	got := Enrich(records)
	require.Len(t, got, 3)

	assert.Nil(t, got[0].PriorValue)
	assert.Nil(t, got[0].MonthlyChange)

	require.NotNil(t, got[1].PriorValue)
	assert.Equal(t, 100.0, *got[1].PriorValue)
	require.NotNil(t, got[1].MonthlyChange)
	assert.InDelta(t, 10.0, *got[1].MonthlyChange, 1e-9)

	require.NotNil(t, got[2].MonthlyChange)
	assert.InDelta(t, -10.0, *got[2].MonthlyChange, 1e-9)
}

func TestEnrichQuarterlyPriorStepsThreeMonths(t *testing.T) {
	records := []models.HarmonizedRecord{
		{MetricName: "Real GDP", SeriesID: "GDPC1", Frequency: "Quarterly", Value: 100, Valid: true, PeriodDate: d(2024, 1, 1)},
		{MetricName: "Real GDP", SeriesID: "GDPC1", Frequency: "Quarterly", Value: 103, Valid: true, PeriodDate: d(2024, 4, 1)},
	}

	got := Enrich(records)
	require.Len(t, got, 2)
	require.NotNil(t, got[1].PriorValue)
	assert.Equal(t, 100.0, *got[1].PriorValue)
}

func TestEnrichAnnualChange(t *testing.T) {
	values := make([]float64, 13)
	for i := range values {
		values[i] = 100
	}
	values[12] = 105
	records := monthly("CPI All Items", "CPIAUCSL", d(2023, 1, 1), values...)

	got := Enrich(records)
	require.Len(t, got, 13)
	require.NotNil(t, got[12].AnnualChange)
	assert.InDelta(t, 5.0, *got[12].AnnualChange, 1e-9)
}

func TestEnrichThreeMonthAnnualized(t *testing.T) {
	records := monthly("CPI All Items", "CPIAUCSL", d(2024, 1, 1), 100, 100, 100, 101)

	got := Enrich(records)
	require.Len(t, got, 4)
	require.NotNil(t, got[3].ThreeMonthAnnualized)
	assert.InDelta(t, 4.0604, *got[3].ThreeMonthAnnualized, 1e-3)
}

func TestEnrichZScoreNeedsFullWindow(t *testing.T) {
	values := []float64{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 10}
	records := monthly("CPI All Items", "CPIAUCSL", d(2023, 1, 1), values...)

	got := Enrich(records)
	require.Len(t, got, 13)
	for i := 0; i < 11; i++ {
		assert.Nil(t, got[i].ZScore12M, "row %d", i)
	}
	require.NotNil(t, got[12].ZScore12M)
	assert.Greater(t, *got[12].ZScore12M, 2.0)
}

func TestEnrichZScoreNilWhenFlat(t *testing.T) {
	values := make([]float64, 12)
	for i := range values {
		values[i] = 3.5
	}
	records := monthly("Fed Funds Rate", "FEDFUNDS", d(2023, 1, 1), values...)

	got := Enrich(records)
	assert.Nil(t, got[11].ZScore12M)
}

func TestEnrichInvalidRowsCarryNoAnalytics(t *testing.T) {
	records := monthly("Retail Sales MoM", "RSAFS", d(2024, 1, 1), 100, 110)
	records[1].Valid = false

	got := Enrich(records)
	require.Len(t, got, 2)
	assert.Nil(t, got[1].PriorValue)
	assert.Nil(t, got[1].MonthlyChange)
}

func TestEnrichDoesNotBlendMetricsSharingASeries(t *testing.T) {
	// A raw index and its derived reading can share the base series id;
	// the lookbacks must stay within each metric's own history.
	raw := monthly("CPI All Items", "CPIAUCSL", d(2024, 1, 1), 300, 303)
	derived := monthly("CPI Year-over-Year", "CPIAUCSL", d(2024, 2, 1), 3.2)

	got := Enrich(append(raw, derived...))
	require.Len(t, got, 3)

	require.NotNil(t, got[1].PriorValue)
	assert.Equal(t, 300.0, *got[1].PriorValue)
	// The lone derived reading has no prior within its own metric.
	assert.Nil(t, got[2].PriorValue)
}

func TestEnrichKeepsInputOrder(t *testing.T) {
	records := monthly("Retail Sales MoM", "RSAFS", d(2024, 1, 1), 100, 110)
	// Feed newest-first; output mirrors the input order.
	reversed := []models.HarmonizedRecord{records[1], records[0]}

	got := Enrich(reversed)
	require.Len(t, got, 2)
	assert.Equal(t, d(2024, 2, 1), got[0].PeriodDate)
	require.NotNil(t, got[0].PriorValue)
	assert.Equal(t, 100.0, *got[0].PriorValue)
}

func TestEnrichMonthEndLookback(t *testing.T) {
	// Month-end period dates must still find the previous calendar
	// month despite the day-of-month mismatch.
	records := []models.HarmonizedRecord{
		{MetricName: "Yield Curve (10yr-2yr)", SeriesID: "DGS10-DGS2", Frequency: "Monthly", Value: -0.4, Valid: true, PeriodDate: d(2024, 2, 29)},
		{MetricName: "Yield Curve (10yr-2yr)", SeriesID: "DGS10-DGS2", Frequency: "Monthly", Value: -0.2, Valid: true, PeriodDate: d(2024, 3, 31)},
	}

	got := Enrich(records)
	require.Len(t, got, 2)
	require.NotNil(t, got[1].PriorValue)
	assert.Equal(t, -0.4, *got[1].PriorValue)
}
