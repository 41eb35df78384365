// Package history backfills the capture history from pictures already in
// the web root.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"picturebridge/internal/model"
	"picturebridge/internal/repository"

	"github.com/google/uuid"
)

// Stats summarizes one import.
type Stats struct {
	Imported int
	Existing int
	Skipped  int
}

// RecordID derives a stable run id from a picture name so that importing
// the same directory twice adds nothing.
func RecordID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("picturebridge:"+name)).String()
}

// isOriginal reports whether name is a camera picture. Filtered copies are
// part of the run that produced the original.
func isOriginal(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return false
	}
	return !strings.Contains(name, "-filtered-")
}

// Import records every original picture in dir that has no history entry.
func Import(dir string, repo repository.CaptureRepository) (Stats, error) {
	var stats Stats

	files, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, file := range files {
		if file.IsDir() || !isOriginal(file.Name()) {
			continue
		}

		info, err := file.Info()
		if err != nil || info.Size() == 0 {
			stats.Skipped++
			continue
		}

		id := RecordID(file.Name())
		existing, err := repo.GetByID(id)
		if err != nil {
			return stats, fmt.Errorf("failed to look up %s: %w", file.Name(), err)
		}
		if existing != nil {
			stats.Existing++
			continue
		}

		record := &model.Capture{
			ID:         id,
			Origin:     model.OriginImport,
			Mode:       model.OriginImport,
			State:      "announced",
			Filenames:  []string{file.Name()},
			StartedAt:  info.ModTime(),
			FinishedAt: info.ModTime(),
		}
		if err := repo.Insert(record); err != nil {
			return stats, fmt.Errorf("failed to insert %s: %w", file.Name(), err)
		}
		stats.Imported++
	}

	return stats, nil
}
