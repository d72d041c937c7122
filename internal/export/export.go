// Package export serializes a filtered table to CSV, XLSX, or PDF bytes.
// The pipeline supplies rows only; layout stays here.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"escalboard/internal/domain"
)

func recordRow(rec domain.Record, cols []string) []string {
	row := make([]string, len(cols))
	for i, col := range cols {
		if col == domain.ColEscalationDate {
			if rec.HasDate {
				row[i] = rec.EscalationDate.Format("2006-01-02 15:04:05")
			}
			continue
		}
		row[i] = rec.Field(col)
	}
	return row
}

// CSV renders the table as CSV with the logical header.
func CSV(t *domain.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, rec := range t.Records {
		if err := w.Write(recordRow(rec, t.Columns)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// XLSX renders the table as a single-sheet workbook.
func XLSX(t *domain.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Escalations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, rec := range t.Records {
		row := recordRow(rec, t.Columns)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncateCell shortens a cell to max runes, never splitting a multibyte
// character.
func truncateCell(cell string, max int) string {
	r := []rune(cell)
	if len(r) <= max {
		return cell
	}
	return string(r[:max-3]) + "..."
}

// pdfColumns keeps the PDF legible on landscape A4; the full table belongs
// in the CSV/XLSX exports.
var pdfColumns = []string{
	domain.ColEscalationDate, domain.ColAccountName, domain.ColCaseCategory,
	domain.ColEscalatedTo, domain.ColStatus,
}

// PDF renders a paginated escalation listing.
func PDF(t *domain.Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Escalation Report (%d records)", t.Len()), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	colW := 277.0 / float64(len(pdfColumns))
	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		for _, col := range pdfColumns {
			pdf.CellFormat(colW, 7, col, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	writeHeader()

	for _, rec := range t.Records {
		if pdf.GetY() > 190 {
			pdf.AddPage()
			writeHeader()
		}
		for _, cell := range recordRow(rec, pdfColumns) {
			pdf.CellFormat(colW, 6, truncateCell(cell, 40), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
