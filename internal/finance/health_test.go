package finance

import (
	"errors"
	"math"
	"testing"
)

func TestScoreHealthBands(t *testing.T) {
	cases := []struct {
		name     string
		income   float64
		expenses float64
		debt     float64
		band     HealthBand
		score    int
	}{
		{"above 70", 1000, 500, 701, BandCritical, 1},
		{"exactly 70", 1000, 500, 700, BandConcerning, 2},
		{"exactly 50", 1000, 500, 500, BandAttention, 3},
		{"just above 50", 1000, 500, 501, BandConcerning, 2},
		{"exactly 30", 1000, 500, 300, BandControlled, 4},
		{"exactly 10", 1000, 500, 100, BandControlled, 4},
		{"just below 10", 1000, 500, 99, BandHealthy, 5},
		{"no income with debt", 0, 0, 1, BandCritical, 1},
		{"no income no debt", 0, 0, 0, BandHealthy, 5},
		{"no debt saving 30", 1000, 700, 0, BandExcellent, 7},
		{"no debt saving exactly 20", 1000, 800, 0, BandSaving, 6},
		{"no debt saving exactly 10", 1000, 900, 0, BandSaving, 6},
		{"no debt saving 5", 1000, 950, 0, BandHealthy, 5},
		{"no debt overspending", 1000, 1500, 0, BandHealthy, 5},
		{"small debt with savings", 1000, 100, 50, BandHealthy, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := ScoreHealth(tc.income, tc.expenses, tc.debt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.Band != tc.band {
				t.Fatalf("expected %s, got %s (ratio %v)", tc.band, h.Band, h.DebtRatio)
			}
			if h.Score != tc.score {
				t.Fatalf("expected score %d, got %d", tc.score, h.Score)
			}
			if h.Color == "" || h.Message == "" {
				t.Fatalf("band %s is missing color or message", h.Band)
			}
		})
	}
}

func TestScoreHealthRejectsInvalidInput(t *testing.T) {
	for _, in := range [][3]float64{
		{-1, 0, 0},
		{0, -1, 0},
		{0, 0, -1},
		{math.NaN(), 0, 0},
	} {
		if _, err := ScoreHealth(in[0], in[1], in[2]); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%v: expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestDebtRatio(t *testing.T) {
	if got := DebtRatio(250, 1000); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
	if got := DebtRatio(5, 0); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := DebtRatio(0, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
