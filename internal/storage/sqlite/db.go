// Package sqlite persists ingestion snapshots so operators get history and
// the service can reload the latest table on restart.
package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"escalboard/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		source         TEXT NOT NULL,
		row_count      INTEGER NOT NULL,
		missing_values INTEGER NOT NULL DEFAULT 0,
		quality_score  REAL NOT NULL DEFAULT 100,
		fetched_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_source ON snapshots(source, fetched_at);

	CREATE TABLE IF NOT EXISTS snapshot_records (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id     INTEGER NOT NULL,
		mode            TEXT DEFAULT '',
		type            TEXT DEFAULT '',
		escalation_date DATETIME,
		domain          TEXT DEFAULT '',
		bid             TEXT DEFAULT '',
		account_name    TEXT DEFAULT '',
		subject         TEXT DEFAULT '',
		parent_category TEXT DEFAULT '',
		case_category   TEXT DEFAULT '',
		escalated_to    TEXT DEFAULT '',
		escalated_by    TEXT DEFAULT '',
		status          TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_snapshot_records_snapshot ON snapshot_records(snapshot_id);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Snapshot is one stored ingestion.
type Snapshot struct {
	ID            int64
	Source        string
	RowCount      int
	MissingValues int
	QualityScore  float64
	FetchedAt     time.Time
}

// InsertSnapshot stores a normalized table with its quality stats in one
// transaction and returns the snapshot ID.
func InsertSnapshot(db *sql.DB, source string, t *domain.Table, missing int, score float64) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO snapshots (source, row_count, missing_values, quality_score) VALUES (?, ?, ?, ?)`,
		source, t.Len(), missing, score,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshot_records
		 (snapshot_id, mode, type, escalation_date, domain, bid, account_name, subject,
		  parent_category, case_category, escalated_to, escalated_by, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, rec := range t.Records {
		var date interface{}
		if rec.HasDate {
			date = rec.EscalationDate
		}
		if _, err := stmt.Exec(
			id, rec.Mode, rec.Type, date, rec.Domain, rec.BID, rec.AccountName,
			rec.Subject, rec.ParentCategory, rec.CaseCategory,
			rec.EscalatedTo, rec.EscalatedBy, rec.Status,
		); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

// LatestSnapshot loads the most recent snapshot for a source (any source
// when source is empty), or sql.ErrNoRows when none exists.
func LatestSnapshot(db *sql.DB, source string) (Snapshot, *domain.Table, error) {
	query := `SELECT id, source, row_count, missing_values, quality_score, fetched_at
	 FROM snapshots WHERE source = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`
	args := []interface{}{source}
	if source == "" {
		query = `SELECT id, source, row_count, missing_values, quality_score, fetched_at
		 FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT 1`
		args = nil
	}

	var snap Snapshot
	err := db.QueryRow(query, args...).
		Scan(&snap.ID, &snap.Source, &snap.RowCount, &snap.MissingValues, &snap.QualityScore, &snap.FetchedAt)
	if err != nil {
		return snap, nil, err
	}

	rows, err := db.Query(
		`SELECT mode, type, escalation_date, domain, bid, account_name, subject,
		        parent_category, case_category, escalated_to, escalated_by, status
		 FROM snapshot_records WHERE snapshot_id = ? ORDER BY id`,
		snap.ID,
	)
	if err != nil {
		return snap, nil, err
	}
	defer rows.Close()

	table := &domain.Table{Columns: domain.RequiredColumns()}
	for rows.Next() {
		var rec domain.Record
		var date sql.NullTime
		if err := rows.Scan(
			&rec.Mode, &rec.Type, &date, &rec.Domain, &rec.BID, &rec.AccountName,
			&rec.Subject, &rec.ParentCategory, &rec.CaseCategory,
			&rec.EscalatedTo, &rec.EscalatedBy, &rec.Status,
		); err != nil {
			return snap, nil, err
		}
		if date.Valid {
			rec.EscalationDate = date.Time
			rec.HasDate = true
		}
		table.Records = append(table.Records, rec)
	}
	return snap, table, rows.Err()
}

// ListSnapshots returns recent snapshot metadata, newest first.
func ListSnapshots(db *sql.DB, limit int) ([]Snapshot, error) {
	rows, err := db.Query(
		`SELECT id, source, row_count, missing_values, quality_score, fetched_at
		 FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Source, &s.RowCount, &s.MissingValues, &s.QualityScore, &s.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots per source.
func PruneSnapshots(db *sql.DB, source string, keep int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`DELETE FROM snapshot_records WHERE snapshot_id IN (
			SELECT id FROM snapshots WHERE source = ?
			ORDER BY fetched_at DESC, id DESC LIMIT -1 OFFSET ?
		)`,
		source, keep,
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`DELETE FROM snapshots WHERE id IN (
			SELECT id FROM snapshots WHERE source = ?
			ORDER BY fetched_at DESC, id DESC LIMIT -1 OFFSET ?
		)`,
		source, keep,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}
