package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"picturebridge/internal/model"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCaptureRepository_InsertAndGet(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))

	started := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c := &model.Capture{
		ID:         "run-1",
		Origin:     model.OriginSerial,
		Mode:       "filter",
		State:      "announced",
		Filenames:  []string{"a.jpg"},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
	if err := repo.Insert(c); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID("run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected capture, got nil")
	}
	if got.Origin != model.OriginSerial || got.State != "announced" {
		t.Errorf("Unexpected capture: %+v", got)
	}
	if len(got.Filenames) != 1 || got.Filenames[0] != "a.jpg" {
		t.Errorf("Expected filenames [a.jpg], got %v", got.Filenames)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("Expected started at %v, got %v", started, got.StartedAt)
	}

	missing, err := repo.GetByID("nope")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown id, got %+v", missing)
	}
}

func TestCaptureRepository_DuplicateID(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))

	c := &model.Capture{ID: "dup", Origin: "serial", Mode: "burst", State: "failed", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := repo.Insert(c); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := repo.Insert(c); err == nil {
		t.Error("Expected error inserting duplicate id")
	}
}

func TestCaptureRepository_RecentAndCounts(t *testing.T) {
	repo := NewCaptureRepository(setupTestDB(t))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		state := "announced"
		if i%2 == 1 {
			state = "failed"
		}
		c := &model.Capture{
			ID:         fmt.Sprintf("run-%d", i),
			Origin:     "client-1",
			Mode:       "filter",
			State:      state,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		if err := repo.Insert(c); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	recent, err := repo.GetRecent(3)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 captures, got %d", len(recent))
	}
	if recent[0].ID != "run-4" || recent[2].ID != "run-2" {
		t.Errorf("Expected newest first, got %s..%s", recent[0].ID, recent[2].ID)
	}
	if len(recent[0].Filenames) != 0 {
		t.Errorf("Expected no filenames, got %v", recent[0].Filenames)
	}

	total, err := repo.GetTotalCount()
	if err != nil || total != 5 {
		t.Errorf("Expected 5 captures, got %d (%v)", total, err)
	}
	failed, err := repo.CountByState("failed")
	if err != nil || failed != 2 {
		t.Errorf("Expected 2 failed captures, got %d (%v)", failed, err)
	}
}
