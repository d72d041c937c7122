package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"escalboard/internal/analytics"
	"escalboard/internal/domain"
	"escalboard/internal/export"
	"escalboard/internal/filter"
	"escalboard/internal/insights"
	"escalboard/internal/schema"
)

const maxUploadBytes = 20 << 20

// warningPayload is the soft-failure envelope: analytics endpoints answer
// 200 with a warning instead of erroring, so one empty chart never blanks
// the rest of the dashboard.
type warningPayload struct {
	Warning string `json:"warning"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// table resolves the current table, answering the no-data warning itself.
// The bool reports whether the caller should proceed.
func (s *Server) table(w http.ResponseWriter) (*domain.Table, bool) {
	t, _ := s.data.Table()
	if t == nil {
		writeJSON(w, http.StatusOK, warningPayload{Warning: "no data ingested yet"})
		return nil, false
	}
	return t, true
}

// filtered resolves the current table and applies the request's filters.
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) (*domain.Table, bool) {
	t, ok := s.table(w)
	if !ok {
		return nil, false
	}
	spec, err := parseFilterSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return filter.Apply(t, spec), true
}

// parseFilterSpec reads the filter dimensions from the query string.
// Absent or "All" params leave the dimension unconstrained.
func parseFilterSpec(r *http.Request) (filter.Spec, error) {
	q := r.URL.Query()
	spec := filter.Spec{
		Mode:           q.Get("mode"),
		Type:           q.Get("type"),
		Domain:         q.Get("domain"),
		Month:          q.Get("month"),
		ParentCategory: q.Get("parent_category"),
		CaseCategory:   q.Get("case_category"),
		Status:         q.Get("status"),
		EscalatedTo:    q.Get("escalated_to"),
		Account:        q.Get("account"),
		Subject:        q.Get("search"),
	}
	if v := q.Get("year"); v != "" && v != filter.All {
		year, err := strconv.Atoi(v)
		if err != nil {
			return spec, fmt.Errorf("invalid year %q", v)
		}
		spec.Year = year
	}
	for name, dst := range map[string]*time.Time{"from": &spec.From, "to": &spec.To} {
		if v := q.Get(name); v != "" {
			ts, ok := schema.ParseDate(v)
			if !ok {
				return spec, fmt.Errorf("invalid %s date %q", name, v)
			}
			*dst = ts
		}
	}
	return spec, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	t, quality := s.data.Table()
	if t == nil {
		writeJSON(w, http.StatusOK, warningPayload{Warning: "no data ingested yet"})
		return
	}
	src, fetchedAt := s.data.Info()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_records": t.Len(),
		"quality":       quality,
		"warnings":      s.data.Warnings(),
		"source":        src,
		"fetched_at":    fetchedAt,
		"columns":       t.Columns,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	limit := 500
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	records := t.Records
	truncated := false
	if len(records) > limit {
		records = records[:limit]
		truncated = true
	}
	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		row := make(map[string]interface{}, len(t.Columns))
		for _, col := range t.Columns {
			if col == domain.ColEscalationDate {
				if rec.HasDate {
					row[col] = rec.EscalationDate.Format(time.RFC3339)
				} else {
					row[col] = nil
				}
				continue
			}
			row[col] = rec.Field(col)
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     t.Len(),
		"truncated": truncated,
		"records":   rows,
	})
}

// countDims maps the by= query values onto columns and derived groupings.
var countDims = map[string]string{
	"mode":            domain.ColMode,
	"type":            domain.ColType,
	"domain":          domain.ColDomain,
	"bid":             domain.ColBID,
	"account":         domain.ColAccountName,
	"parent_category": domain.ColParentCategory,
	"case_category":   domain.ColCaseCategory,
	"escalated_to":    domain.ColEscalatedTo,
	"escalated_by":    domain.ColEscalatedBy,
	"status":          domain.ColStatus,
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	if t.Len() == 0 {
		writeJSON(w, http.StatusOK, warningPayload{Warning: "no rows match the current filters"})
		return
	}

	by := r.URL.Query().Get("by")
	var counts []analytics.DimCount
	switch by {
	case "day_of_week":
		counts = analytics.CountByDayOfWeek(t)
	case "month":
		counts = analytics.CountByMonth(t)
	case "hour":
		counts = analytics.CountByHour(t)
	default:
		col, ok := countDims[by]
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown dimension %q", by))
			return
		}
		counts = analytics.CountBy(t, col)
	}

	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid top %q", v))
			return
		}
		counts = analytics.TopN(counts, n)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"by": by, "counts": counts})
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	if t.Len() == 0 {
		writeJSON(w, http.StatusOK, warningPayload{Warning: "no rows match the current filters"})
		return
	}

	bucket := r.URL.Query().Get("bucket")
	var series []analytics.Bucket
	switch bucket {
	case "", "day":
		bucket = "day"
		series = analytics.DailySeries(t)
	case "month":
		series = analytics.MonthlySeries(t)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown bucket %q (want day or month)", bucket))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bucket": bucket, "series": series})
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	series := analytics.DailySeries(t)
	if len(series) == 0 {
		writeJSON(w, http.StatusOK, warningPayload{Warning: "no dated rows match the current filters"})
		return
	}
	anomalies := analytics.DetectAnomalies(series, s.cfg.AnomalyWindow, s.cfg.AnomalyThreshold)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"window":    s.cfg.AnomalyWindow,
		"threshold": s.cfg.AnomalyThreshold,
		"anomalies": anomalies,
	})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	points, err := analytics.Forecast(analytics.MonthlySeries(t), s.cfg.ForecastWindow, s.cfg.ForecastHorizon)
	if err != nil {
		var insufficient *domain.InsufficientDataError
		if errors.As(err, &insufficient) {
			writeJSON(w, http.StatusOK, warningPayload{Warning: err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"points": points})
}

func (s *Server) handleWorkload(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	if t.Len() == 0 {
		writeJSON(w, http.StatusOK, warningPayload{Warning: "no rows match the current filters"})
		return
	}
	writeJSON(w, http.StatusOK, analytics.WorkloadBalance(t))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	lines, err := insights.Generate(t)
	if err != nil {
		var insufficient *domain.InsufficientDataError
		if errors.As(err, &insufficient) {
			writeJSON(w, http.StatusOK, warningPayload{Warning: "no rows match the current filters"})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": lines})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	snaps, err := s.data.History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snaps})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err))
		return
	}

	result, err := s.data.IngestUpload(data, header.Filename)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	result, err := s.data.RefreshFromSheet()
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeIngestError maps the ingestion error taxonomy onto HTTP statuses:
// schema and upload problems are the client's, transport problems are the
// upstream sheet's.
func writeIngestError(w http.ResponseWriter, err error) {
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	var sourceErr *domain.SourceError
	if errors.As(err, &sourceErr) {
		if sourceErr.Source == "upload" {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	stamp := time.Now().Format("20060102")

	var (
		data        []byte
		err         error
		contentType string
		filename    string
	)
	switch format {
	case "csv":
		data, err = export.CSV(t)
		contentType = "text/csv"
		filename = fmt.Sprintf("escalations_%s.csv", stamp)
	case "xlsx":
		data, err = export.XLSX(t)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = fmt.Sprintf("escalations_%s.xlsx", stamp)
	case "pdf":
		data, err = export.PDF(t)
		contentType = "application/pdf"
		filename = fmt.Sprintf("escalations_%s.pdf", stamp)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown format %q (want csv, xlsx, or pdf)", format))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}
