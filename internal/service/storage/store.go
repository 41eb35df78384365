// Package storage writes pictures into the web root so they can be served
// by name as soon as they are announced.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// dateLayout mimics a browser Date string, e.g.
// "Mon Oct 19 2026 14:03:05 GMT+0200 (CEST)".
const dateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// ImageStore hands out file names and writes files inside one directory.
type ImageStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewImageStore creates a store rooted at dir, creating it if needed.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ImageStore{dir: dir, now: time.Now}, nil
}

// SetClock replaces the time source used for names.
func (s *ImageStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Dir returns the root directory.
func (s *ImageStore) Dir() string {
	return s.dir
}

// Path returns the absolute location of name inside the store.
func (s *ImageStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// NewName returns a fresh file name derived from the current time with all
// non-alphanumeric characters removed. If that name is taken a numeric
// suffix is added, so two sequential captures in the same second never
// collide.
func (s *ImageStore) NewName(ext string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := TimestampName(s.now())
	name := base + ext
	for i := 1; s.existsLocked(name); i++ {
		name = base + strconv.Itoa(i) + ext
	}
	return name
}

// TimestampName formats t like a browser date and strips every
// non-alphanumeric character.
func TimestampName(t time.Time) string {
	return nonAlphanumeric.ReplaceAllString(t.Format(dateLayout), "")
}

// FilteredName inserts "-filtered-{filter}" before the extension of name.
func FilteredName(name, filter string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-filtered-" + filter + ext
}

func (s *ImageStore) existsLocked(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Ready reports whether name exists and has content, i.e. is safe to
// announce to browsers.
func (s *ImageStore) Ready(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// WriteFrom streams r into name. The data goes to a temporary file first
// and is renamed into place, so name is either absent or complete.
func (s *ImageStore) WriteFrom(name string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return n, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return n, fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return n, nil
}

// WriteFile writes data to name in one step.
func (s *ImageStore) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
