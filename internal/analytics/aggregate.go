// Package analytics groups filtered tables into counts, time series,
// anomaly flags, forecasts, and workload-balance metrics. Every operation
// is pure and independent so one broken computation never blanks the rest
// of the dashboard.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"escalboard/internal/domain"
)

// DimCount is one (value, count) pair from a count-by-dimension grouping.
type DimCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountBy groups records by a single categorical column and returns
// (value, count) pairs in first-encountered order.
func CountBy(t *domain.Table, col string) []DimCount {
	return countValues(t, func(rec domain.Record) string { return rec.Field(col) })
}

// CountByDayOfWeek groups by the derived weekday name. Records with null
// dates are excluded.
func CountByDayOfWeek(t *domain.Table) []DimCount {
	return countValues(t, func(rec domain.Record) string { return rec.DayOfWeek() })
}

// CountByMonth groups by the derived month name. Records with null dates
// are excluded.
func CountByMonth(t *domain.Table) []DimCount {
	return countValues(t, func(rec domain.Record) string { return rec.Month })
}

// CountByHour groups by the hour of day, labeled "00".."23". Records with
// null dates are excluded.
func CountByHour(t *domain.Table) []DimCount {
	return countValues(t, func(rec domain.Record) string {
		h := rec.Hour()
		if h < 0 {
			return ""
		}
		return fmt.Sprintf("%02d", h)
	})
}

func countValues(t *domain.Table, key func(domain.Record) string) []DimCount {
	idx := make(map[string]int)
	var out []DimCount
	for _, rec := range t.Records {
		v := key(rec)
		if v == "" {
			continue
		}
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, DimCount{Value: v, Count: 1})
	}
	return out
}

// TopN returns the n highest counts, descending. Ties keep the grouping's
// first-encountered order, so results are deterministic for a given input
// ordering. n <= 0 means all.
func TopN(counts []DimCount, n int) []DimCount {
	out := make([]DimCount, len(counts))
	copy(out, counts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Bucket is one time-series point: a labeled calendar bucket and its count.
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// DailySeries buckets records by calendar date, ordered chronologically.
// Null-date records are excluded.
func DailySeries(t *domain.Table) []Bucket {
	return series(t, func(day time.Time) (time.Time, string) {
		return day, day.Format("2006-01-02")
	})
}

// MonthlySeries buckets records by month with "Jan 2006" labels, ordered
// chronologically.
func MonthlySeries(t *domain.Table) []Bucket {
	return series(t, func(day time.Time) (time.Time, string) {
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.Format("Jan 2006")
	})
}

func series(t *domain.Table, bucketOf func(time.Time) (time.Time, string)) []Bucket {
	idx := make(map[time.Time]int)
	var out []Bucket
	for _, rec := range t.Records {
		if !rec.HasDate {
			continue
		}
		start, label := bucketOf(rec.Day())
		if i, ok := idx[start]; ok {
			out[i].Count++
			continue
		}
		idx[start] = len(out)
		out = append(out, Bucket{Label: label, Start: start, Count: 1})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
