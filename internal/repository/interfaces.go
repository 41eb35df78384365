package repository

import "picturebridge/internal/model"

// CaptureRepository stores the outcome of every capture pipeline run.
type CaptureRepository interface {
	// Create operations
	Insert(c *model.Capture) error

	// Read operations
	GetByID(id string) (*model.Capture, error)
	GetRecent(limit int) ([]model.Capture, error)
	GetTotalCount() (int, error)
	CountByState(state string) (int, error)
}
