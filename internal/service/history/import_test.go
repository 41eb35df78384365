package history

import (
	"os"
	"path/filepath"
	"testing"

	"picturebridge/internal/model"
	"picturebridge/internal/repository/sqlite"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func setupRepo(t *testing.T) *sqlite.CaptureRepository {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "captures.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlite.NewCaptureRepository(db)
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "MonOct192026140305GMT0200CEST.jpg", []byte("jpeg"))
	writeFile(t, dir, "MonOct192026140305GMT0200CEST-filtered-sepia.jpg", []byte("jpeg"))
	writeFile(t, dir, "MonOct192026140306GMT0200CEST.png", []byte("png"))
	writeFile(t, dir, "empty.jpg", nil)
	writeFile(t, dir, "placeholder.gif", []byte("gif"))
	writeFile(t, dir, "index.html", []byte("<html>"))
	if err := os.Mkdir(filepath.Join(dir, "css"), 0755); err != nil {
		t.Fatal(err)
	}

	repo := setupRepo(t)

	stats, err := Import(dir, repo)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats != (Stats{Imported: 2, Skipped: 1}) {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	record, err := repo.GetByID(RecordID("MonOct192026140305GMT0200CEST.jpg"))
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected imported record")
	}
	if record.Origin != model.OriginImport || len(record.Filenames) != 1 {
		t.Errorf("Unexpected record: %+v", record)
	}

	// A second run adds nothing.
	stats, err = Import(dir, repo)
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}
	if stats.Imported != 0 || stats.Existing != 2 {
		t.Errorf("Expected nothing new, got %+v", stats)
	}

	total, err := repo.GetTotalCount()
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 records, got %d", total)
	}
}

func TestImport_MissingDirectory(t *testing.T) {
	if _, err := Import(filepath.Join(t.TempDir(), "nope"), setupRepo(t)); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestRecordID_Stable(t *testing.T) {
	if RecordID("a.jpg") != RecordID("a.jpg") {
		t.Error("Expected stable id")
	}
	if RecordID("a.jpg") == RecordID("b.jpg") {
		t.Error("Expected distinct ids")
	}
}
