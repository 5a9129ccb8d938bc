package monitoring

import (
	"math"
	"testing"
)

func TestSummarizeConfidenceEmpty(t *testing.T) {
	s := SummarizeConfidence(nil)
	if s.Count != 0 || s.Mean != 0 || s.P99 != 0 {
		t.Fatalf("expected zero summary for empty input, got %+v", s)
	}
}

func TestSummarizeConfidenceSingleValue(t *testing.T) {
	s := SummarizeConfidence([]float64{0.7})
	if s.Count != 1 {
		t.Fatalf("count = %d, want 1", s.Count)
	}
	if s.Min != 0.7 || s.Max != 0.7 || s.Mean != 0.7 {
		t.Errorf("min/max/mean should all be 0.7, got %+v", s)
	}
	if s.StdDev != 0 {
		t.Errorf("std dev for one value = %v, want 0", s.StdDev)
	}
	if math.IsNaN(s.P50) || math.IsNaN(s.P99) {
		t.Error("quantiles should not be NaN for one value")
	}
}

func TestSummarizeConfidenceDistribution(t *testing.T) {
	// 100 evenly spaced values in (0, 1].
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i+1) / 100.0
	}

	s := SummarizeConfidence(values)
	if s.Count != 100 {
		t.Fatalf("count = %d, want 100", s.Count)
	}
	if s.Min != 0.01 || s.Max != 1.0 {
		t.Errorf("min/max = %v/%v, want 0.01/1.0", s.Min, s.Max)
	}
	if math.Abs(s.Mean-0.505) > 1e-9 {
		t.Errorf("mean = %v, want 0.505", s.Mean)
	}
	if s.P50 < 0.45 || s.P50 > 0.55 {
		t.Errorf("p50 = %v, expected near 0.5", s.P50)
	}
	if s.P90 < 0.85 || s.P90 > 0.95 {
		t.Errorf("p90 = %v, expected near 0.9", s.P90)
	}
	if s.P99 < s.P90 || s.P99 > s.Max {
		t.Errorf("p99 = %v out of order (p90=%v max=%v)", s.P99, s.P90, s.Max)
	}
}
