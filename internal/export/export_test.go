package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"escalboard/internal/domain"
)

func exportTable() *domain.Table {
	return &domain.Table{
		Columns: domain.RequiredColumns(),
		Records: []domain.Record{
			{
				Mode: "Manual", Type: "TA",
				EscalationDate: time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC),
				HasDate:        true,
				AccountName:    "Acme", CaseCategory: "Refund", Status: "Open",
			},
			{Mode: "Auto", Type: "TA", AccountName: "Globex"},
		},
	}
}

func TestCSVExport(t *testing.T) {
	data, err := CSV(exportTable())
	if err != nil {
		t.Fatalf("CSV failed: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-parsing export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != domain.ColMode {
		t.Fatalf("header starts with %q, want %q", rows[0][0], domain.ColMode)
	}
	if rows[1][2] != "2024-03-05 14:30:00" {
		t.Fatalf("date cell = %q", rows[1][2])
	}
	if rows[2][2] != "" {
		t.Fatalf("null date must export blank, got %q", rows[2][2])
	}
}

func TestXLSXExport(t *testing.T) {
	data, err := XLSX(exportTable())
	if err != nil {
		t.Fatalf("XLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Escalations")
	if err != nil {
		t.Fatalf("reading sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != domain.ColMode {
		t.Fatalf("header starts with %q, want %q", rows[0][0], domain.ColMode)
	}
	if rows[1][5] != "Acme" {
		t.Fatalf("account cell = %q, want Acme", rows[1][5])
	}
}

func TestPDFExport(t *testing.T) {
	data, err := PDF(exportTable())
	if err != nil {
		t.Fatalf("PDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestTruncateCellRuneSafe(t *testing.T) {
	short := "Acme"
	if got := truncateCell(short, 40); got != short {
		t.Fatalf("short cell changed: %q", got)
	}

	long := strings.Repeat("ü", 50)
	got := truncateCell(long, 40)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if utf8.RuneCountInString(got) != 40 {
		t.Fatalf("got %d runes, want 40", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("missing ellipsis: %q", got)
	}
}

func TestPDFExportManyPages(t *testing.T) {
	table := &domain.Table{Columns: domain.RequiredColumns()}
	for i := 0; i < 200; i++ {
		table.Records = append(table.Records, domain.Record{
			AccountName:  "Account with a deliberately long name for truncation",
			CaseCategory: "Refund", Status: "Open",
		})
	}

	data, err := PDF(table)
	if err != nil {
		t.Fatalf("PDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
	// Multiple page objects mean pagination happened.
	if strings.Count(string(data), "/Page") < 2 {
		t.Fatal("expected a multi-page document for 200 rows")
	}
}
