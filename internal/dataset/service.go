// Package dataset owns the current normalized table: ingestion from sheet
// or upload, the TTL cache, and snapshot persistence. Views read through
// it and never mutate what they get back.
package dataset

import (
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"escalboard/internal/config"
	"escalboard/internal/domain"
	"escalboard/internal/metrics"
	"escalboard/internal/schema"
	"escalboard/internal/source"
	"escalboard/internal/storage/sqlite"
)

// SheetSource is the snapshot source key for the remote sheet.
const SheetSource = "sheet"

// Result summarizes one ingestion.
type Result struct {
	Source     string          `json:"source"`
	Rows       int             `json:"rows"`
	Quality    metrics.Quality `json:"quality"`
	Warnings   []string        `json:"warnings,omitempty"`
	SnapshotID int64           `json:"snapshot_id"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

type Service struct {
	db       *sql.DB
	fetcher  source.SheetFetcher
	hasSheet bool
	ttl      time.Duration
	keep     int

	mu        sync.RWMutex
	table     *domain.Table
	quality   metrics.Quality
	warnings  []string
	source    string
	fetchedAt time.Time
}

// New builds the service and warm-starts from the latest stored snapshot
// when one exists.
func New(cfg config.Config, db *sql.DB) *Service {
	s := &Service{
		db:       db,
		hasSheet: cfg.SheetConfigured(),
		ttl:      time.Duration(cfg.CacheTTLSeconds) * time.Second,
		keep:     cfg.SnapshotKeep,
	}
	if s.hasSheet {
		s.fetcher = source.SheetFetcher{SheetID: cfg.SheetID, SheetName: cfg.SheetName}
	}

	snap, table, err := sqlite.LatestSnapshot(db, "")
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("snapshot warm-start failed: %v", err)
		}
		return s
	}
	s.table = table
	s.quality = metrics.Derive(table)
	s.source = snap.Source
	s.fetchedAt = snap.FetchedAt
	log.Printf("warm-started from snapshot id=%d rows=%d fetched_at=%s", snap.ID, table.Len(), snap.FetchedAt.Format(time.RFC3339))
	return s
}

// Table returns the current normalized table with its quality report.
// When the cache TTL has lapsed and a sheet is configured it re-fetches
// first; a failed re-fetch serves the stale table and logs, since
// staleness here is cosmetic. Returns nil when nothing was ever ingested.
func (s *Service) Table() (*domain.Table, metrics.Quality) {
	s.mu.RLock()
	stale := s.table == nil || (s.ttl > 0 && time.Since(s.fetchedAt) > s.ttl)
	table, quality := s.table, s.quality
	s.mu.RUnlock()

	if stale && s.hasSheet {
		if _, err := s.RefreshFromSheet(); err != nil {
			log.Printf("cache refresh failed, serving stale table: %v", err)
		}
		s.mu.RLock()
		table, quality = s.table, s.quality
		s.mu.RUnlock()
	}
	return table, quality
}

// Warnings returns the schema warnings from the current table's ingestion.
func (s *Service) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warnings
}

// Info describes the current cache state for the summary view.
func (s *Service) Info() (source string, fetchedAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.fetchedAt
}

// RefreshFromSheet force-fetches the sheet, runs the pipeline, persists a
// snapshot, and swaps the cache. Concurrent refreshes are not coordinated;
// last writer wins.
func (s *Service) RefreshFromSheet() (Result, error) {
	if !s.hasSheet {
		return Result{}, &domain.SourceError{Source: SheetSource, Err: errors.New("no sheet configured")}
	}
	raw, err := s.fetcher.Fetch()
	if err != nil {
		return Result{}, err
	}
	return s.ingest(raw, domain.RequiredColumns(), SheetSource)
}

// IngestUpload runs the pipeline over an uploaded file. Upload ingestion
// validates the reduced required subset.
func (s *Service) IngestUpload(data []byte, filename string) (Result, error) {
	raw, err := source.ParseUpload(data, filename)
	if err != nil {
		return Result{}, err
	}
	return s.ingest(raw, domain.UploadColumns(), "upload:"+filename)
}

func (s *Service) ingest(raw [][]string, required []string, src string) (Result, error) {
	table, diff, err := schema.Normalize(raw, required)
	if err != nil {
		return Result{}, err
	}
	quality := metrics.Derive(table)
	warnings := diff.Warnings()
	for _, w := range warnings {
		log.Printf("ingest warning source=%s: %s", src, w)
	}

	id, err := sqlite.InsertSnapshot(s.db, src, table, quality.MissingValues, quality.QualityScore)
	if err != nil {
		// The view can still serve the in-memory table.
		log.Printf("snapshot persist failed source=%s: %v", src, err)
	} else if err := sqlite.PruneSnapshots(s.db, src, s.keep); err != nil {
		log.Printf("snapshot prune failed: %v", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.table = table
	s.quality = quality
	s.warnings = warnings
	s.source = src
	s.fetchedAt = now
	s.mu.Unlock()

	log.Printf("ingest done source=%s rows=%d missing=%d score=%.1f", src, table.Len(), quality.MissingValues, quality.QualityScore)
	return Result{
		Source:     src,
		Rows:       table.Len(),
		Quality:    quality,
		Warnings:   warnings,
		SnapshotID: id,
		FetchedAt:  now,
	}, nil
}

// History lists recent ingestion snapshots, newest first.
func (s *Service) History(limit int) ([]sqlite.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	return sqlite.ListSnapshots(s.db, limit)
}
