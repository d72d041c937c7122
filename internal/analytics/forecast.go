package analytics

import (
	"time"

	"escalboard/internal/domain"
)

const (
	DefaultForecastWindow  = 3
	DefaultForecastHorizon = 3
)

// ForecastPoint is one projected bucket. Forecast distinguishes projected
// points from historical ones so consumers never chart them as real data.
type ForecastPoint struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Forecast bool    `json:"forecast"`
}

// Forecast projects the mean of the trailing window counts forward as a
// flat line for horizon monthly buckets. The series must have more than
// window points; otherwise forecasting is skipped with
// *domain.InsufficientDataError and other analyses proceed.
func Forecast(series []Bucket, window, horizon int) ([]ForecastPoint, error) {
	if window <= 0 {
		window = DefaultForecastWindow
	}
	if horizon <= 0 {
		horizon = DefaultForecastHorizon
	}
	if len(series) <= window {
		return nil, &domain.InsufficientDataError{
			Analysis: "moving-average forecast",
			Need:     window + 1,
			Got:      len(series),
		}
	}

	sum := 0.0
	for _, b := range series[len(series)-window:] {
		sum += float64(b.Count)
	}
	level := sum / float64(window)

	out := make([]ForecastPoint, 0, len(series)+horizon)
	for _, b := range series {
		out = append(out, ForecastPoint{Label: b.Label, Value: float64(b.Count)})
	}
	last := series[len(series)-1].Start
	for i := 1; i <= horizon; i++ {
		next := time.Date(last.Year(), last.Month()+time.Month(i), 1, 0, 0, 0, 0, last.Location())
		out = append(out, ForecastPoint{Label: next.Format("Jan 2006"), Value: level, Forecast: true})
	}
	return out, nil
}
