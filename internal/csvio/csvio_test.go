package csvio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/harmonizer/models"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestReadRecordsMissingFile(t *testing.T) {
	records, err := ReadRecords(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestWriteThenReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	in := []models.HarmonizedRecord{
		{
			MetricName: "CPI Year-over-Year",
			SeriesID:   "CPIAUCSL",
			Type:       "lagging",
			Category:   "Inflation",
			Unit:       "percent",
			Frequency:  "Monthly",
			Value:      3.2,
			Valid:      true,
			PeriodDate: d(2024, 1, 31),
		},
		{
			MetricName: "Yield Curve (10yr-2yr)",
			SeriesID:   "DGS10-DGS2",
			Type:       "leading",
			Category:   "Rates",
			Unit:       "percent",
			Frequency:  "Monthly",
			Valid:      false, // reporting gap, kept as a blank cell
			PeriodDate: d(2024, 1, 31),
		},
	}

	require.NoError(t, WriteRecords(path, in))
	got, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestReadRecordsColumnOrderIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shuffled.csv")
	content := "period_date,value,metric_name,series_id,type,category,unit,frequency\n" +
		"2024-01-31,3.7,Unemployment Rate,UNRATE,lagging,Labor,percent,Monthly\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Unemployment Rate", got[0].MetricName)
	assert.Equal(t, 3.7, got[0].Value)
	assert.Equal(t, d(2024, 1, 31), got[0].PeriodDate)
}

func TestReadRecordsLegacyDateFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.csv")
	content := "metric_name,series_id,type,category,unit,frequency,value,period_date\n" +
		"A,S1,lagging,Labor,percent,Monthly,1,2024-01-31 00:00:00\n" +
		"B,S2,lagging,Labor,percent,Monthly,2,2024-02-29T00:00:00Z\n" +
		"C,S3,lagging,Labor,percent,Monthly,3,not-a-date\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, got, 2) // the unparseable-date row is dropped
	assert.Equal(t, d(2024, 1, 31), got[0].PeriodDate)
	assert.Equal(t, d(2024, 2, 29), got[1].PeriodDate)
}

func TestReadRecordsBlankValueKeepsRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaps.csv")
	content := "metric_name,series_id,type,category,unit,frequency,value,period_date\n" +
		"A,S1,lagging,Labor,percent,Monthly,,2024-01-31\n" +
		"A,S1,lagging,Labor,percent,Monthly,n/a,2024-02-29\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
}

func TestWriteExtended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extended.csv")
	prior := 100.0
	change := 2.5
	in := []models.HistoricalRecord{
		{
			HarmonizedRecord: models.HarmonizedRecord{
				MetricName: "Retail Sales MoM",
				SeriesID:   "RSAFS",
				Type:       "coincident",
				Category:   "Consumption",
				Unit:       "percent",
				Frequency:  "Monthly",
				Value:      2.5,
				Valid:      true,
				PeriodDate: d(2024, 2, 29),
			},
			ReleaseDate:   d(2024, 2, 29),
			PriorValue:    &prior,
			MonthlyChange: &change,
		},
	}

	require.NoError(t, WriteExtended(path, in))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "metric_name,series_id,type,category,unit,frequency,value,period_date," +
		"release_date,prior_value,monthly_change,annual_change,z_score_12m,three_month_annualized\n" +
		"Retail Sales MoM,RSAFS,coincident,Consumption,percent,Monthly,2.5,2024-02-29," +
		"2024-02-29,100,2.5,,,\n"
	assert.Equal(t, want, string(raw))
}

func TestWriteCoverage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.csv")
	in := []models.CoverageRow{
		{
			MetricName: "Unemployment Rate",
			SeriesID:   "UNRATE",
			MinDate:    d(2014, 8, 1),
			MaxDate:    d(2024, 7, 1),
			NObs:       120,
			NYears:     11,
		},
	}

	require.NoError(t, WriteCoverage(path, in))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "metric_name,series_id,min_date,max_date,n_obs,n_years\n" +
		"Unemployment Rate,UNRATE,2014-08-01,2024-07-01,120,11\n"
	assert.Equal(t, want, string(raw))
}
