package analytics

import (
	"testing"
	"time"

	"escalboard/internal/domain"
)

func recOn(y int, m time.Month, d int, category string) domain.Record {
	ts := time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
	return domain.Record{
		EscalationDate: ts,
		HasDate:        true,
		CaseCategory:   category,
		Month:          m.String(),
		Year:           y,
	}
}

func TestCountByFirstEncounteredOrder(t *testing.T) {
	table := &domain.Table{
		Columns: domain.RequiredColumns(),
		Records: []domain.Record{
			recOn(2024, time.January, 1, "Refund"),
			recOn(2024, time.January, 2, "Billing"),
			recOn(2024, time.January, 3, "Refund"),
		},
	}

	counts := CountBy(table, domain.ColCaseCategory)
	if len(counts) != 2 {
		t.Fatalf("got %d groups, want 2", len(counts))
	}
	if counts[0].Value != "Refund" || counts[0].Count != 2 {
		t.Fatalf("first group = %+v, want Refund/2", counts[0])
	}
	if counts[1].Value != "Billing" || counts[1].Count != 1 {
		t.Fatalf("second group = %+v, want Billing/1", counts[1])
	}
}

func TestCountBySkipsEmptyValues(t *testing.T) {
	table := &domain.Table{
		Columns: domain.RequiredColumns(),
		Records: []domain.Record{
			recOn(2024, time.January, 1, "Refund"),
			recOn(2024, time.January, 2, ""),
		},
	}
	counts := CountBy(table, domain.ColCaseCategory)
	if len(counts) != 1 {
		t.Fatalf("blank values must not form a group, got %v", counts)
	}
}

func TestCountByHourLabels(t *testing.T) {
	table := &domain.Table{
		Columns: domain.RequiredColumns(),
		Records: []domain.Record{
			recOn(2024, time.January, 1, "Refund"),
			{CaseCategory: "no date"},
		},
	}
	counts := CountByHour(table)
	if len(counts) != 1 {
		t.Fatalf("got %d groups, want 1", len(counts))
	}
	if counts[0].Value != "09" {
		t.Fatalf("hour label = %q, want 09", counts[0].Value)
	}
}

func TestTopNDescendingWithStableTies(t *testing.T) {
	counts := []DimCount{
		{Value: "A", Count: 2},
		{Value: "B", Count: 5},
		{Value: "C", Count: 2},
		{Value: "D", Count: 7},
	}
	top := TopN(counts, 3)
	if len(top) != 3 {
		t.Fatalf("TopN returned %d entries, want 3", len(top))
	}
	if top[0].Value != "D" || top[1].Value != "B" || top[2].Value != "A" {
		t.Fatalf("unexpected order: %+v", top)
	}
	// Input must be untouched.
	if counts[0].Value != "A" {
		t.Fatal("TopN mutated its input")
	}
}

func TestDailySeriesChronological(t *testing.T) {
	table := &domain.Table{
		Columns: domain.RequiredColumns(),
		Records: []domain.Record{
			recOn(2024, time.January, 3, "Refund"),
			recOn(2024, time.January, 1, "Refund"),
			recOn(2024, time.January, 3, "Billing"),
			{CaseCategory: "no date"},
		},
	}

	series := DailySeries(table)
	if len(series) != 2 {
		t.Fatalf("got %d buckets, want 2", len(series))
	}
	if series[0].Label != "2024-01-01" || series[0].Count != 1 {
		t.Fatalf("first bucket = %+v", series[0])
	}
	if series[1].Label != "2024-01-03" || series[1].Count != 2 {
		t.Fatalf("second bucket = %+v", series[1])
	}
}

func TestMonthlySeriesLabels(t *testing.T) {
	table := &domain.Table{
		Columns: domain.RequiredColumns(),
		Records: []domain.Record{
			recOn(2024, time.February, 20, "Refund"),
			recOn(2024, time.January, 5, "Refund"),
			recOn(2024, time.February, 2, "Refund"),
		},
	}

	series := MonthlySeries(table)
	if len(series) != 2 {
		t.Fatalf("got %d buckets, want 2", len(series))
	}
	if series[0].Label != "Jan 2024" || series[1].Label != "Feb 2024" {
		t.Fatalf("unexpected labels: %q, %q", series[0].Label, series[1].Label)
	}
	if series[1].Count != 2 {
		t.Fatalf("Feb count = %d, want 2", series[1].Count)
	}
}
