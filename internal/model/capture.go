package model

import "time"

// Origin values for a capture that was not started by a browser.
const (
	OriginSerial = "serial"
	OriginImport = "import"
)

// Capture represents one capture pipeline run as stored in the history.
type Capture struct {
	ID         string    `json:"id"`
	Origin     string    `json:"origin"`
	Mode       string    `json:"mode"`
	State      string    `json:"state"`
	Filenames  []string  `json:"filenames"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
