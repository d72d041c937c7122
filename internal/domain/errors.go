package domain

import "fmt"

// SourceError means the origin table could not be fetched or parsed at all.
// Fatal for that ingestion attempt; no partial table is produced.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SchemaError means the date column is entirely missing from the source,
// the one unrecoverable schema condition. All other column gaps degrade to
// sentinel-filled columns.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q is missing from the source", e.Column)
}

// InsufficientDataError means a view has fewer data points than an analysis
// requires. Soft: that analysis is skipped, others proceed.
type InsufficientDataError struct {
	Analysis string
	Need     int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s needs at least %d data points, got %d", e.Analysis, e.Need, e.Got)
}
