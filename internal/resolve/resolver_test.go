package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/macrolens/harmonizer/models"
)

type fakeSearcher struct {
	candidates []models.SeriesCandidate
	err        error
	gotQuery   string
	gotSA      bool
}

func (f *fakeSearcher) SearchSeries(_ context.Context, query string, seasonallyAdjusted bool) ([]models.SeriesCandidate, error) {
	f.gotQuery = query
	f.gotSA = seasonallyAdjusted
	return f.candidates, f.err
}

func TestResolveDirectSeries(t *testing.T) {
	r := New(&fakeSearcher{}, true)
	metric := models.MetricDefinition{
		Name:        "Unemployment Rate",
		Computation: models.DirectSeries{SeriesID: "UNRATE"},
	}

	id, err := r.Resolve(context.Background(), metric)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != "UNRATE" {
		t.Errorf("Resolve() = %q, want UNRATE", id)
	}
}

func TestResolveDerived(t *testing.T) {
	r := New(&fakeSearcher{}, true)
	metric := models.MetricDefinition{
		Name:        "Yield Curve (10yr-2yr)",
		Computation: models.Derived{Kind: models.Spread, BaseSeries: "DGS10", SecondSeries: "DGS2"},
	}

	if _, err := r.Resolve(context.Background(), metric); !errors.Is(err, ErrDerived) {
		t.Fatalf("Resolve() error = %v, want ErrDerived", err)
	}
}

func TestResolveSearch(t *testing.T) {
	searcher := &fakeSearcher{candidates: []models.SeriesCandidate{
		{ID: "ABC", Popularity: 10, SeasonallyAdjusted: true, Frequency: models.Monthly},
	}}
	r := New(searcher, true)
	metric := models.MetricDefinition{
		Name:        "Leading Economic Index",
		Computation: models.SearchQuery{Query: "Leading Economic Index"},
	}

	id, err := r.Resolve(context.Background(), metric)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != "ABC" {
		t.Errorf("Resolve() = %q, want ABC", id)
	}
	if searcher.gotQuery != "Leading Economic Index" || !searcher.gotSA {
		t.Errorf("search called with query=%q sa=%v", searcher.gotQuery, searcher.gotSA)
	}
}

func TestResolveNotFound(t *testing.T) {
	tests := []struct {
		name     string
		searcher *fakeSearcher
	}{
		{"zero candidates", &fakeSearcher{}},
		{"transport failure reads as no data", &fakeSearcher{err: errors.New("connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.searcher, true)
			metric := models.MetricDefinition{
				Name:        "Some Metric",
				Computation: models.SearchQuery{Query: "Some Metric"},
			}
			if _, err := r.Resolve(context.Background(), metric); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Resolve() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestChooseBest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []models.SeriesCandidate
		want       string
	}{
		{
			name: "seasonal adjustment outranks popularity and frequency",
			candidates: []models.SeriesCandidate{
				{ID: "NSA", SeasonallyAdjusted: false, Popularity: 50, Frequency: models.Monthly, LastUpdated: "2023-01-01"},
				{ID: "SA", SeasonallyAdjusted: true, Popularity: 10, Frequency: models.Quarterly, LastUpdated: "2022-01-01"},
			},
			want: "SA",
		},
		{
			name: "popularity decides among equal adjustment",
			candidates: []models.SeriesCandidate{
				{ID: "LOW", SeasonallyAdjusted: true, Popularity: 10},
				{ID: "HIGH", SeasonallyAdjusted: true, Popularity: 90},
			},
			want: "HIGH",
		},
		{
			name: "finer frequency decides among equal popularity",
			candidates: []models.SeriesCandidate{
				{ID: "Q", SeasonallyAdjusted: true, Popularity: 50, Frequency: models.Quarterly},
				{ID: "M", SeasonallyAdjusted: true, Popularity: 50, Frequency: models.Monthly},
			},
			want: "M",
		},
		{
			name: "later last_updated decides the final tie",
			candidates: []models.SeriesCandidate{
				{ID: "OLD", SeasonallyAdjusted: true, Popularity: 50, Frequency: models.Monthly, LastUpdated: "2022-06-01"},
				{ID: "NEW", SeasonallyAdjusted: true, Popularity: 50, Frequency: models.Monthly, LastUpdated: "2024-06-01"},
			},
			want: "NEW",
		},
		{
			name: "full ties keep scan order",
			candidates: []models.SeriesCandidate{
				{ID: "FIRST", SeasonallyAdjusted: true, Popularity: 50, Frequency: models.Monthly, LastUpdated: "2024-06-01"},
				{ID: "SECOND", SeasonallyAdjusted: true, Popularity: 50, Frequency: models.Monthly, LastUpdated: "2024-06-01"},
			},
			want: "FIRST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := ChooseBest(tt.candidates)
			if !ok {
				t.Fatal("ChooseBest() returned no candidate")
			}
			if best.ID != tt.want {
				t.Errorf("ChooseBest() = %q, want %q", best.ID, tt.want)
			}
		})
	}
}

func TestChooseBestEmpty(t *testing.T) {
	if _, ok := ChooseBest(nil); ok {
		t.Fatal("ChooseBest(nil) returned a candidate")
	}
}
