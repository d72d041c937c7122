package domain

import "time"

// Logical column names as they appear in the source sheet. These are
// bit-exact: the sheet export and the upload path both key on them.
const (
	ColMode           = "Mode"
	ColType           = "Type"
	ColEscalationDate = "Escalation Date"
	ColDomain         = "Domain"
	ColBID            = "BID"
	ColAccountName    = "Account name"
	ColSubject        = "Subject line (Manual TA Escalation)"
	ColParentCategory = "Parent Category"
	ColCaseCategory   = "Case Category"
	ColEscalatedTo    = "Escalated To"
	ColEscalatedBy    = "Escalated By"
	ColStatus         = "Status"
)

// Unknown is the sentinel substituted for genuinely missing required data.
const Unknown = "Unknown"

// RequiredColumns is the full logical schema for sheet ingestion.
func RequiredColumns() []string {
	return []string{
		ColMode, ColType, ColEscalationDate, ColDomain, ColBID,
		ColAccountName, ColSubject, ColParentCategory, ColCaseCategory,
		ColEscalatedTo, ColEscalatedBy, ColStatus,
	}
}

// UploadColumns is the reduced required subset for file-upload ingestion.
func UploadColumns() []string {
	return []string{
		ColMode, ColType, ColEscalationDate, ColDomain, ColBID,
		ColAccountName, ColSubject, ColParentCategory, ColCaseCategory,
		ColEscalatedTo,
	}
}

// Record is one escalation event mapped onto the logical schema.
// EscalationDate is null (HasDate=false) when the source cell failed to
// parse; such records are kept but excluded from time-bucketed views.
type Record struct {
	Mode           string
	Type           string
	EscalationDate time.Time
	HasDate        bool
	Domain         string
	BID            string
	AccountName    string
	Subject        string
	ParentCategory string
	CaseCategory   string
	EscalatedTo    string
	EscalatedBy    string
	Status         string

	// Derived from EscalationDate by the metrics deriver. Empty/zero when
	// the date is null.
	Month string
	Year  int
}

// DayOfWeek returns the weekday name for the escalation date, or "" for a
// null date. Cheap enough to recompute per view instead of storing.
func (r Record) DayOfWeek() string {
	if !r.HasDate {
		return ""
	}
	return r.EscalationDate.Weekday().String()
}

// Hour returns the hour of day [0,23] for the escalation date, or -1 for a
// null date.
func (r Record) Hour() int {
	if !r.HasDate {
		return -1
	}
	return r.EscalationDate.Hour()
}

// Day returns the escalation date truncated to the calendar day.
func (r Record) Day() time.Time {
	return r.EscalationDate.Truncate(24 * time.Hour)
}

// Field returns the value of a logical column by name. Derived columns are
// not addressable here; callers group on them through typed helpers.
func (r Record) Field(col string) string {
	switch col {
	case ColMode:
		return r.Mode
	case ColType:
		return r.Type
	case ColDomain:
		return r.Domain
	case ColBID:
		return r.BID
	case ColAccountName:
		return r.AccountName
	case ColSubject:
		return r.Subject
	case ColParentCategory:
		return r.ParentCategory
	case ColCaseCategory:
		return r.CaseCategory
	case ColEscalatedTo:
		return r.EscalatedTo
	case ColEscalatedBy:
		return r.EscalatedBy
	case ColStatus:
		return r.Status
	}
	return ""
}

// Table is an ordered sequence of records sharing the logical schema.
// A table is immutable once normalized: filters build new tables and leave
// the base intact.
type Table struct {
	Columns []string
	Records []Record
}

// Len returns the record count.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
