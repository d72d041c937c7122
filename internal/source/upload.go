package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"escalboard/internal/domain"
)

// ParseUpload parses an uploaded file into a raw table by extension:
// .csv through encoding/csv, .xlsx through excelize (first sheet).
// Malformed input is reported as *domain.SourceError.
func ParseUpload(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err := readCSV(bytes.NewReader(data))
		if err != nil {
			return nil, &domain.SourceError{Source: "upload", Err: err}
		}
		return rows, nil
	case ".xlsx":
		return parseXLSX(data)
	default:
		return nil, &domain.SourceError{
			Source: "upload",
			Err:    fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(filename)),
		}
	}
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.SourceError{Source: "upload", Err: fmt.Errorf("opening workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.SourceError{Source: "upload", Err: fmt.Errorf("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &domain.SourceError{Source: "upload", Err: fmt.Errorf("reading sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 {
		return nil, &domain.SourceError{Source: "upload", Err: fmt.Errorf("sheet %q is empty", sheets[0])}
	}
	return rows, nil
}
