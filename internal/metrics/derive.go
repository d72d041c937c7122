// Package metrics computes derived columns and the data-quality report for
// a normalized table.
package metrics

import "escalboard/internal/domain"

// Quality is the per-table data-quality report. Score is in [0,100]:
// 100 − missing/(rows×columns)×100, defined as 100 for a zero-row table.
type Quality struct {
	TotalRecords  int     `json:"total_records"`
	MissingValues int     `json:"missing_values"`
	QualityScore  float64 `json:"quality_score"`
}

// Derive recomputes Month and Year for every record from the finalized
// escalation date and returns the quality report over the full table.
// Idempotent: a second call yields identical columns and report.
func Derive(t *domain.Table) Quality {
	missing := 0
	for i := range t.Records {
		rec := &t.Records[i]
		if rec.HasDate {
			rec.Month = rec.EscalationDate.Month().String()
			rec.Year = rec.EscalationDate.Year()
		} else {
			rec.Month = ""
			rec.Year = 0
			missing++ // null date cell
		}
		for _, col := range t.Columns {
			if col == domain.ColEscalationDate {
				continue
			}
			if rec.Field(col) == "" {
				missing++
			}
		}
	}

	q := Quality{
		TotalRecords:  len(t.Records),
		MissingValues: missing,
		QualityScore:  100,
	}
	cells := len(t.Records) * len(t.Columns)
	if cells > 0 {
		q.QualityScore = 100 - float64(missing)/float64(cells)*100
	}
	return q
}
