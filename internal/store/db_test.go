package store

import (
	"testing"
	"time"
)

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return store
}

func TestNew(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store.db should not be nil")
	}
}

func TestCreateSchema(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	// Verify tables exist by querying sqlite_master
	tables := []string{"runs", "operations"}
	for _, table := range tables {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Verify indexes exist
	indexes := []string{"idx_runs_started", "idx_operations_run", "idx_operations_status"}
	for _, index := range indexes {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", index, err)
		}
	}
}

func TestBeginAndGetRun(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	id, err := store.BeginRun("/photos/site", 1200)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	if id == 0 {
		t.Error("BeginRun() should return non-zero ID")
	}

	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}

	if run.ID != id {
		t.Errorf("Run.ID = %d, want %d", run.ID, id)
	}
	if run.Root != "/photos/site" {
		t.Errorf("Run.Root = %s, want /photos/site", run.Root)
	}
	if run.MaxWidth != 1200 {
		t.Errorf("Run.MaxWidth = %d, want 1200", run.MaxWidth)
	}
	if run.StartedAt.IsZero() {
		t.Error("Run.StartedAt should not be zero")
	}

	// Counters stay at zero until FinishRun
	if run.Processed != 0 || run.Skipped != 0 || run.Failed != 0 || run.BytesSaved != 0 {
		t.Errorf("fresh run counters = %d/%d/%d/%d, want all zero",
			run.Processed, run.Skipped, run.Failed, run.BytesSaved)
	}
}

func TestFinishRun(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	id, err := store.BeginRun("/photos", 1200)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	if err := store.FinishRun(id, 5, 2, 1, 1536000); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}

	if run.Processed != 5 {
		t.Errorf("Run.Processed = %d, want 5", run.Processed)
	}
	if run.Skipped != 2 {
		t.Errorf("Run.Skipped = %d, want 2", run.Skipped)
	}
	if run.Failed != 1 {
		t.Errorf("Run.Failed = %d, want 1", run.Failed)
	}
	if run.BytesSaved != 1536000 {
		t.Errorf("Run.BytesSaved = %d, want 1536000", run.BytesSaved)
	}
}

func TestFinishRunNotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	err := store.FinishRun(999, 0, 0, 0, 0)
	if err == nil {
		t.Error("FinishRun() should return error for nonexistent run")
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetRun(999)
	if err == nil {
		t.Error("GetRun() should return error for nonexistent run")
	}
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	roots := []string{"/first", "/second", "/third"}
	var ids []int64
	for _, root := range roots {
		id, err := store.BeginRun(root, 1200)
		if err != nil {
			t.Fatalf("BeginRun() failed for %s: %v", root, err)
		}
		ids = append(ids, id)
	}

	// List all runs
	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != len(roots) {
		t.Fatalf("ListRuns() returned %d runs, want %d", len(runs), len(roots))
	}

	// Verify runs are ordered newest first
	for i, run := range runs {
		wantID := ids[len(ids)-1-i]
		if run.ID != wantID {
			t.Errorf("Run[%d].ID = %d, want %d", i, run.ID, wantID)
		}
	}

	// Verify limit
	limited, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListRuns(2) returned %d runs, want 2", len(limited))
	}
	if limited[0].Root != "/third" {
		t.Errorf("ListRuns(2)[0].Root = %s, want /third", limited[0].Root)
	}
}

func TestListRunsEmpty(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("ListRuns() returned %d runs, want 0", len(runs))
	}
}

func TestRecordAndListOperations(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	runID, err := store.BeginRun("/photos", 1200)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	ops := []*Operation{
		{
			RunID:      runID,
			RelPath:    "gallery/hero.jpg",
			OrigWidth:  2400,
			OrigHeight: 1600,
			NewWidth:   1200,
			NewHeight:  800,
			OrigBytes:  850000,
			NewBytes:   240000,
			BackupPath: "/photos/.image-backups/2026-08-25/gallery/hero.jpg",
			Status:     "committed",
		},
		{
			RunID:      runID,
			RelPath:    "gallery/banner.png",
			OrigWidth:  3000,
			OrigHeight: 500,
			NewWidth:   1200,
			NewHeight:  200,
			OrigBytes:  620000,
			NewBytes:   0,
			BackupPath: "/photos/.image-backups/2026-08-25/gallery/banner.png",
			Status:     "rolled_back",
			Detail:     "transform produced an empty file",
		},
	}

	for _, op := range ops {
		if err := store.RecordOperation(op); err != nil {
			t.Fatalf("RecordOperation() failed for %s: %v", op.RelPath, err)
		}
		if op.ID == 0 {
			t.Errorf("RecordOperation() should fill in ID for %s", op.RelPath)
		}
	}

	retrieved, err := store.ListOperations(runID)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	if len(retrieved) != len(ops) {
		t.Fatalf("ListOperations() returned %d operations, want %d", len(retrieved), len(ops))
	}

	// Verify operations come back in the order they ran
	for i, op := range retrieved {
		want := ops[i]
		if op.RelPath != want.RelPath {
			t.Errorf("Operation[%d].RelPath = %s, want %s", i, op.RelPath, want.RelPath)
		}
		if op.RunID != runID {
			t.Errorf("Operation[%d].RunID = %d, want %d", i, op.RunID, runID)
		}
		if op.OrigWidth != want.OrigWidth || op.OrigHeight != want.OrigHeight {
			t.Errorf("Operation[%d] orig dims = %dx%d, want %dx%d",
				i, op.OrigWidth, op.OrigHeight, want.OrigWidth, want.OrigHeight)
		}
		if op.NewWidth != want.NewWidth || op.NewHeight != want.NewHeight {
			t.Errorf("Operation[%d] new dims = %dx%d, want %dx%d",
				i, op.NewWidth, op.NewHeight, want.NewWidth, want.NewHeight)
		}
		if op.OrigBytes != want.OrigBytes || op.NewBytes != want.NewBytes {
			t.Errorf("Operation[%d] bytes = %d -> %d, want %d -> %d",
				i, op.OrigBytes, op.NewBytes, want.OrigBytes, want.NewBytes)
		}
		if op.BackupPath != want.BackupPath {
			t.Errorf("Operation[%d].BackupPath = %s, want %s", i, op.BackupPath, want.BackupPath)
		}
		if op.Status != want.Status {
			t.Errorf("Operation[%d].Status = %s, want %s", i, op.Status, want.Status)
		}
		if op.Detail != want.Detail {
			t.Errorf("Operation[%d].Detail = %s, want %s", i, op.Detail, want.Detail)
		}
	}
}

func TestListOperationsEmpty(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	runID, err := store.BeginRun("/photos", 1200)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	ops, err := store.ListOperations(runID)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("ListOperations() returned %d operations, want 0", len(ops))
	}
}

func TestOperationBytesSaved(t *testing.T) {
	op := &Operation{OrigBytes: 850000, NewBytes: 240000}
	if got := op.BytesSaved(); got != 610000 {
		t.Errorf("BytesSaved() = %d, want 610000", got)
	}

	// Negative when the rewrite grew the file
	op = &Operation{OrigBytes: 100, NewBytes: 150}
	if got := op.BytesSaved(); got != -50 {
		t.Errorf("BytesSaved() = %d, want -50", got)
	}
}

func TestRunCascadeDelete(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	runID, err := store.BeginRun("/photos", 1200)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	op := &Operation{
		RunID:      runID,
		RelPath:    "img.png",
		OrigWidth:  2000,
		OrigHeight: 1000,
		NewWidth:   1200,
		NewHeight:  600,
		OrigBytes:  700000,
		NewBytes:   300000,
		BackupPath: "/photos/.image-backups/2026-08-25/img.png",
		Status:     "committed",
	}
	if err := store.RecordOperation(op); err != nil {
		t.Fatalf("RecordOperation() failed: %v", err)
	}

	// Delete run
	if _, err := store.db.Exec("DELETE FROM runs WHERE id = ?", runID); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}

	// Verify operations are deleted
	ops, err := store.ListOperations(runID)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("Operations should be deleted with run, got %d", len(ops))
	}
}

func TestStartedAtRoundTrip(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	before := time.Now().Add(-time.Minute)

	id, err := store.BeginRun("/photos", 1200)
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}

	if run.StartedAt.Before(before) {
		t.Errorf("Run.StartedAt = %v, should not be before %v", run.StartedAt, before)
	}
	if run.StartedAt.After(time.Now().Add(time.Minute)) {
		t.Errorf("Run.StartedAt = %v, should not be in the future", run.StartedAt)
	}
}
