// Package schema maps an arbitrary raw table onto the fixed logical
// escalation schema: column diffing, sentinel fill, date parsing.
package schema

import (
	"fmt"
	"strings"
	"time"

	"escalboard/internal/domain"
)

// Diff is the typed report of how the source header compares with the
// required logical schema. Downstream consumers read this instead of doing
// ad-hoc column presence checks.
type Diff struct {
	Present []string
	Missing []string
	Extra   []string
}

// Warnings returns one human-readable line per missing required column.
func (d *Diff) Warnings() []string {
	var out []string
	for _, col := range d.Missing {
		out = append(out, fmt.Sprintf("required column %q missing from source, filled with %q", col, domain.Unknown))
	}
	return out
}

// Escalation dates arrive in whatever format the sheet editor last used.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseDate parses a date cell against the tolerated layouts.
// Returns ok=false for blank or unparseable cells.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Normalize maps a raw 2-D string table (first row = header) onto the full
// logical schema. Columns absent from the source are synthesized filled
// with the Unknown sentinel; rows are never dropped. The required list
// governs which absences are reported on the Diff: sheet ingestion passes
// the full schema, file upload the reduced subset. The only unrecoverable
// condition is a missing date column, reported as *domain.SchemaError.
func Normalize(raw [][]string, required []string) (*domain.Table, *Diff, error) {
	if len(raw) == 0 {
		return nil, nil, &domain.SchemaError{Column: domain.ColEscalationDate}
	}

	header := dedupeHeader(raw[0])
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	diff := &Diff{}
	for _, col := range required {
		if _, ok := index[col]; ok {
			diff.Present = append(diff.Present, col)
		} else {
			diff.Missing = append(diff.Missing, col)
		}
	}
	// Extra is judged against the full logical schema, not the caller's
	// required subset.
	logical := make(map[string]bool)
	for _, col := range domain.RequiredColumns() {
		logical[col] = true
	}
	for _, name := range header {
		if !logical[name] {
			diff.Extra = append(diff.Extra, name)
		}
	}

	if _, ok := index[domain.ColEscalationDate]; !ok {
		return nil, diff, &domain.SchemaError{Column: domain.ColEscalationDate}
	}

	// Absent columns are synthesized with the sentinel; blank cells in
	// present columns stay blank so the quality report can count them.
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok {
			return domain.Unknown
		}
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	table := &domain.Table{Columns: domain.RequiredColumns()}
	for _, row := range raw[1:] {
		rec := domain.Record{
			Mode:           cell(row, domain.ColMode),
			Type:           cell(row, domain.ColType),
			Domain:         cell(row, domain.ColDomain),
			BID:            cell(row, domain.ColBID),
			AccountName:    cell(row, domain.ColAccountName),
			Subject:        cell(row, domain.ColSubject),
			ParentCategory: cell(row, domain.ColParentCategory),
			CaseCategory:   cell(row, domain.ColCaseCategory),
			EscalatedTo:    cell(row, domain.ColEscalatedTo),
			EscalatedBy:    cell(row, domain.ColEscalatedBy),
			Status:         cell(row, domain.ColStatus),
		}
		rec.EscalationDate, rec.HasDate = ParseDate(rawCell(row, index[domain.ColEscalationDate]))
		table.Records = append(table.Records, rec)
	}

	return table, diff, nil
}

func rawCell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// dedupeHeader disambiguates duplicate header names: second and later
// occurrences get a ".N" suffix.
func dedupeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			out[i] = fmt.Sprintf("%s.%d", name, n)
			continue
		}
		seen[name] = 1
		out[i] = name
	}
	return out
}
