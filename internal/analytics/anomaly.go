package analytics

import "math"

// Default rolling parameters. The source data gives no domain reason for
// these values, so they stay configurable with these defaults.
const (
	DefaultAnomalyWindow    = 3
	DefaultAnomalyThreshold = 2.0
)

// Anomaly is a flagged time-series point with the rolling statistics that
// flagged it.
type Anomaly struct {
	Bucket
	RollingMean float64 `json:"rolling_mean"`
	RollingStd  float64 `json:"rolling_std"`
}

// DetectAnomalies flags points whose count deviates from the rolling mean
// of the up-to-window points preceding them by more than threshold times
// the rolling standard deviation. The first point has no preceding window
// and is never flagged. Inside a constant run the deviation is zero, so a
// flat series flags nothing. Output preserves series order.
func DetectAnomalies(series []Bucket, window int, threshold float64) []Anomaly {
	if window <= 0 {
		window = DefaultAnomalyWindow
	}
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	var out []Anomaly
	for i := 1; i < len(series); i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		mean, std := meanStd(series[lo:i])
		if math.Abs(float64(series[i].Count)-mean) > threshold*std {
			out = append(out, Anomaly{Bucket: series[i], RollingMean: mean, RollingStd: std})
		}
	}
	return out
}

// meanStd returns the mean and population standard deviation of the bucket
// counts.
func meanStd(window []Bucket) (float64, float64) {
	n := float64(len(window))
	sum := 0.0
	for _, b := range window {
		sum += float64(b.Count)
	}
	mean := sum / n

	ss := 0.0
	for _, b := range window {
		d := float64(b.Count) - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}
