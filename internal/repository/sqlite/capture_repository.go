package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"picturebridge/internal/model"
)

// CaptureRepository implements repository.CaptureRepository for SQLite.
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new SQLite capture repository.
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Insert stores a finished capture run.
func (r *CaptureRepository) Insert(c *model.Capture) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO captures (id, origin, mode, state, filenames, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Origin, c.Mode, c.State, strings.Join(c.Filenames, ","), c.Error, c.StartedAt, c.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}
	return nil
}

// GetByID retrieves a capture by its run id. It returns nil when not found.
func (r *CaptureRepository) GetByID(id string) (*model.Capture, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, origin, mode, state, filenames, error, started_at, finished_at
		FROM captures WHERE id = ?
	`, id)

	c, err := scanCapture(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}
	return c, nil
}

// GetRecent returns up to limit captures, newest first.
func (r *CaptureRepository) GetRecent(limit int) ([]model.Capture, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, origin, mode, state, filenames, error, started_at, finished_at
		FROM captures ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	captures := make([]model.Capture, 0)
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, *c)
	}
	return captures, rows.Err()
}

// GetTotalCount returns the number of stored captures.
func (r *CaptureRepository) GetTotalCount() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM captures`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count captures: %w", err)
	}
	return count, nil
}

// CountByState returns the number of captures that ended in state.
func (r *CaptureRepository) CountByState(state string) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM captures WHERE state = ?`, state).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count captures: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCapture(s scanner) (*model.Capture, error) {
	var c model.Capture
	var filenames string
	if err := s.Scan(&c.ID, &c.Origin, &c.Mode, &c.State, &filenames, &c.Error, &c.StartedAt, &c.FinishedAt); err != nil {
		return nil, err
	}
	c.Filenames = []string{}
	if filenames != "" {
		c.Filenames = strings.Split(filenames, ",")
	}
	return &c, nil
}
