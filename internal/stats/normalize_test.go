package stats

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestZScores_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"empty", []float64{}},
		{"single", []float64{0.57}},
		{"all zeros", []float64{0, 0, 0, 0}},
		{"constant", []float64{3.2, 3.2, 3.2}},
		{"constant inexact", []float64{0.1, 0.1, 0.1}},
		{"constant win rate", []float64{0.55, 0.55, 0.55, 0.55, 0.55, 0.55, 0.55}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ZScores(tt.values)
			if len(got) != len(tt.values) {
				t.Fatalf("Expected %d z-scores, got %d", len(tt.values), len(got))
			}
			for i, z := range got {
				if z != 0 {
					t.Errorf("Expected z[%d] = 0, got %v", i, z)
				}
			}
		})
	}
}

func TestZScores_Standardized(t *testing.T) {
	values := []float64{0.52, 0.61, 0.48, 0.55, 0.59, 0.44}

	z := ZScores(values)
	mean, stddev := MeanStdDev(z)

	if math.Abs(mean) > epsilon {
		t.Errorf("Expected mean of z-scores ~0, got %v", mean)
	}
	if math.Abs(stddev-1) > epsilon {
		t.Errorf("Expected stddev of z-scores ~1, got %v", stddev)
	}
}

func TestZScores_KnownValues(t *testing.T) {
	// mean 2, population stddev sqrt(2/3)
	z := ZScores([]float64{1, 2, 3})
	want := 1 / math.Sqrt(2.0/3.0)

	if math.Abs(z[0]+want) > epsilon || math.Abs(z[1]) > epsilon || math.Abs(z[2]-want) > epsilon {
		t.Errorf("Unexpected z-scores: %v", z)
	}
}

func TestMeanStdDev_Empty(t *testing.T) {
	mean, stddev := MeanStdDev(nil)
	if mean != 0 || stddev != 0 {
		t.Errorf("Expected (0, 0), got (%v, %v)", mean, stddev)
	}
}

func TestConfidence(t *testing.T) {
	if got := Confidence(0); got != 0 {
		t.Errorf("Confidence(0) = %v, want 0", got)
	}
	if got := Confidence(-5); got != 0 {
		t.Errorf("Confidence(-5) = %v, want 0", got)
	}

	want := math.Log10(101) / 4
	if got := Confidence(100); math.Abs(got-want) > epsilon {
		t.Errorf("Confidence(100) = %v, want %v", got, want)
	}

	if got := Confidence(10_000_000); got != 1 {
		t.Errorf("Confidence should saturate at 1, got %v", got)
	}
}

func TestConfidence_Monotonic(t *testing.T) {
	prev := Confidence(0)
	for games := 1; games <= 200_000; games += 137 {
		c := Confidence(games)
		if c < prev {
			t.Fatalf("Confidence decreased at %d games: %v < %v", games, c, prev)
		}
		if c > 1 {
			t.Fatalf("Confidence exceeded 1 at %d games: %v", games, c)
		}
		prev = c
	}
}
