package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"escalboard/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecords() *domain.Table {
	return &domain.Table{
		Columns: domain.RequiredColumns(),
		Records: []domain.Record{
			{
				Mode: "Manual", Type: "TA",
				EscalationDate: time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC),
				HasDate:        true,
				AccountName:    "Acme", CaseCategory: "Refund", Status: "Open",
			},
			{Mode: "Auto", Type: "TA", AccountName: "Globex"},
		},
	}
}

func TestInsertAndLatestSnapshot(t *testing.T) {
	db := newTestDB(t)

	id, err := InsertSnapshot(db, "sheet", testRecords(), 3, 87.5)
	if err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero snapshot id")
	}

	snap, table, err := LatestSnapshot(db, "sheet")
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if snap.ID != id || snap.RowCount != 2 || snap.MissingValues != 3 || snap.QualityScore != 87.5 {
		t.Fatalf("unexpected snapshot metadata: %+v", snap)
	}
	if table.Len() != 2 {
		t.Fatalf("got %d records, want 2", table.Len())
	}
	if !table.Records[0].HasDate {
		t.Fatal("first record lost its escalation date")
	}
	if table.Records[1].HasDate {
		t.Fatal("null date must round-trip as null")
	}
	if table.Records[0].AccountName != "Acme" {
		t.Fatalf("account = %q, want Acme", table.Records[0].AccountName)
	}
}

func TestLatestSnapshotAnySource(t *testing.T) {
	db := newTestDB(t)

	if _, err := InsertSnapshot(db, "sheet", testRecords(), 0, 100); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
	last, err := InsertSnapshot(db, "upload", testRecords(), 0, 100)
	if err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}

	snap, _, err := LatestSnapshot(db, "")
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if snap.ID != last {
		t.Fatalf("latest across sources = %d, want %d", snap.ID, last)
	}
}

func TestLatestSnapshotEmptyDB(t *testing.T) {
	db := newTestDB(t)
	_, _, err := LatestSnapshot(db, "sheet")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPruneSnapshots(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 5; i++ {
		if _, err := InsertSnapshot(db, "sheet", testRecords(), 0, 100); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}
	if err := PruneSnapshots(db, "sheet", 2); err != nil {
		t.Fatalf("PruneSnapshots failed: %v", err)
	}

	snaps, err := ListSnapshots(db, 10)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots after prune, want 2", len(snaps))
	}

	var orphans int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM snapshot_records WHERE snapshot_id NOT IN (SELECT id FROM snapshots)`,
	).Scan(&orphans)
	if err != nil {
		t.Fatalf("counting orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("prune left %d orphaned records", orphans)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	db := newTestDB(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := InsertSnapshot(db, "sheet", testRecords(), 0, 100)
		if err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
		ids = append(ids, id)
	}

	snaps, err := ListSnapshots(db, 10)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	if snaps[0].ID != ids[2] {
		t.Fatalf("first listed = %d, want newest %d", snaps[0].ID, ids[2])
	}
}
