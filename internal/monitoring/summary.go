package monitoring

import (
	"gonum.org/v1/gonum/stat"
)

// ConfidenceSummary describes the distribution of recent detection
// confidence scores.
type ConfidenceSummary struct {
	Window string  `json:"window,omitempty"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// SummarizeConfidence computes distribution statistics over confidence
// values. The input must be sorted ascending (ConfidenceValues returns it
// that way); an empty slice yields a zero summary.
func SummarizeConfidence(sorted []float64) ConfidenceSummary {
	if len(sorted) == 0 {
		return ConfidenceSummary{}
	}

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0 // MeanStdDev returns NaN for n=1
	}

	return ConfidenceSummary{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: std,
		P50:    stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.90, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}
