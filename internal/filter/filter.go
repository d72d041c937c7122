// Package filter applies an AND-combined predicate set over a normalized
// table, producing a new filtered table and leaving the base intact.
package filter

import (
	"strings"
	"time"

	"escalboard/internal/domain"
)

// All is the wildcard value: a dimension set to All (or left empty) is
// unconstrained.
const All = "All"

// Spec is an immutable set of predicates combined by logical AND.
// Zero values mean "no constraint on this dimension".
type Spec struct {
	From time.Time
	To   time.Time

	Mode           string
	Type           string
	Domain         string
	Month          string
	Year           int
	ParentCategory string
	CaseCategory   string
	Status         string
	EscalatedTo    string

	// Case-insensitive substring matches. A null/blank field never
	// matches a non-empty term.
	Account string
	Subject string
}

// Apply evaluates the spec against every record, preserving input order.
// An empty result is a valid, reportable state, not an error.
func Apply(t *domain.Table, s Spec) *domain.Table {
	out := &domain.Table{Columns: t.Columns}
	for _, rec := range t.Records {
		if s.matches(rec) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

func (s Spec) matches(rec domain.Record) bool {
	if !s.From.IsZero() || !s.To.IsZero() {
		// Range is inclusive on both ends and compares calendar days.
		if !rec.HasDate {
			return false
		}
		day := rec.Day()
		if !s.From.IsZero() && day.Before(s.From.Truncate(24*time.Hour)) {
			return false
		}
		if !s.To.IsZero() && day.After(s.To.Truncate(24*time.Hour)) {
			return false
		}
	}

	if !equalsDim(s.Mode, rec.Mode) ||
		!equalsDim(s.Type, rec.Type) ||
		!equalsDim(s.Domain, rec.Domain) ||
		!equalsDim(s.Month, rec.Month) ||
		!equalsDim(s.ParentCategory, rec.ParentCategory) ||
		!equalsDim(s.CaseCategory, rec.CaseCategory) ||
		!equalsDim(s.Status, rec.Status) ||
		!equalsDim(s.EscalatedTo, rec.EscalatedTo) {
		return false
	}
	if s.Year != 0 && rec.Year != s.Year {
		return false
	}
	if !containsFold(rec.AccountName, s.Account) {
		return false
	}
	if !containsFold(rec.Subject, s.Subject) {
		return false
	}
	return true
}

func equalsDim(want, got string) bool {
	if want == "" || want == All {
		return true
	}
	return want == got
}

func containsFold(field, term string) bool {
	if term == "" || term == All {
		return true
	}
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(term))
}
