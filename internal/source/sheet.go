// Package source ingests raw escalation tables: a published Google Sheet
// fetched over HTTPS, or an uploaded CSV/XLSX file. Both paths produce a
// 2-D string table with the first row as header; all cleaning happens
// downstream in the schema normalizer.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"escalboard/internal/domain"
	"escalboard/internal/httpx"
)

const defaultSheetBaseURL = "https://docs.google.com"

// SheetFetcher pulls a worksheet as CSV through the sheet's gviz export
// endpoint. The sheet must be link-readable; no service account needed.
// BaseURL overrides the Google endpoint, for tests.
type SheetFetcher struct {
	SheetID   string
	SheetName string
	BaseURL   string
}

// URL returns the CSV export URL for the configured worksheet.
func (f SheetFetcher) URL() string {
	base := f.BaseURL
	if base == "" {
		base = defaultSheetBaseURL
	}
	return fmt.Sprintf(
		"%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		base, url.PathEscape(f.SheetID), url.QueryEscape(f.SheetName),
	)
}

// Fetch downloads the worksheet and parses it into a raw table. Any
// transport or parse failure is reported as *domain.SourceError; no
// partial table is produced.
func (f SheetFetcher) Fetch() ([][]string, error) {
	req, err := http.NewRequest("GET", f.URL(), nil)
	if err != nil {
		return nil, &domain.SourceError{Source: "sheet", Err: err}
	}

	resp, err := httpx.Client().Do(req)
	if err != nil {
		return nil, &domain.SourceError{Source: "sheet", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.SourceError{
			Source: "sheet",
			Err:    fmt.Errorf("sheet export returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	rows, err := readCSV(resp.Body)
	if err != nil {
		return nil, &domain.SourceError{Source: "sheet", Err: err}
	}
	log.Printf("sheet fetch done sheet=%s rows=%d", f.SheetName, len(rows))
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // sheet rows can be ragged
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	return rows, nil
}
