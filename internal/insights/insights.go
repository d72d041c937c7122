// Package insights derives short natural-language statements from the
// aggregates of a filtered table.
package insights

import (
	"fmt"

	"escalboard/internal/analytics"
	"escalboard/internal/domain"
)

// Generate returns one insight per dimension that has data: most frequent
// case category, busiest day of week, busiest month, most active account.
// Ties break by the grouping's first-encountered order, so output is
// deterministic for a given input ordering. An empty table yields
// *domain.InsufficientDataError; callers surface it as a soft warning.
func Generate(t *domain.Table) ([]string, error) {
	if t.Len() == 0 {
		return nil, &domain.InsufficientDataError{Analysis: "insights", Need: 1, Got: 0}
	}

	var out []string
	if top, ok := argmax(analytics.CountBy(t, domain.ColCaseCategory)); ok {
		out = append(out, fmt.Sprintf("Most common escalation category is '%s' (%d of %d escalations).",
			top.Value, top.Count, t.Len()))
	}
	if top, ok := argmax(analytics.CountByDayOfWeek(t)); ok {
		out = append(out, fmt.Sprintf("Busiest day of the week is %s with %d escalations.",
			top.Value, top.Count))
	}
	if top, ok := argmax(analytics.CountByMonth(t)); ok {
		out = append(out, fmt.Sprintf("Busiest month is %s with %d escalations.",
			top.Value, top.Count))
	}
	if top, ok := argmax(analytics.CountBy(t, domain.ColAccountName)); ok {
		out = append(out, fmt.Sprintf("Most escalations come from account '%s' (%d).",
			top.Value, top.Count))
	}
	return out, nil
}

func argmax(counts []analytics.DimCount) (analytics.DimCount, bool) {
	if len(counts) == 0 {
		return analytics.DimCount{}, false
	}
	top := counts[0]
	for _, c := range counts[1:] {
		if c.Count > top.Count {
			top = c
		}
	}
	return top, true
}
