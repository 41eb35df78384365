package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"picturebridge/internal/logger"
	"picturebridge/internal/model"
	"picturebridge/internal/repository"
	"picturebridge/internal/service/capture"
)

const (
	defaultCaptureLimit = 20
	maxCaptureLimit     = 200
)

// PipelineStatus reports what the capture pipeline is doing right now.
type PipelineStatus interface {
	State() capture.State
}

// ClientCounter reports how many browsers are connected.
type ClientCounter interface {
	GetClientCount() int
}

type capturesResponse struct {
	Captures []model.Capture `json:"captures"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
}

type statusResponse struct {
	Mode    string `json:"mode"`
	State   string `json:"state"`
	Clients int    `json:"clients"`
	Total   int    `json:"total"`
	Failed  int    `json:"failed"`
}

// CapturesHandler returns the capture history, newest first. With ?id= it
// returns that single run.
func CapturesHandler(repo repository.CaptureRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		if id := q.Get("id"); id != "" {
			record, err := repo.GetByID(id)
			if err != nil {
				logger.Error("Error querying capture %s: %v", id, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if record == nil {
				http.Error(w, "Capture not found", http.StatusNotFound)
				return
			}
			writeJSON(w, logger, record)
			return
		}

		limit := atoiDefault(q.Get("limit"), defaultCaptureLimit)
		if limit > maxCaptureLimit {
			limit = maxCaptureLimit
		}

		captures, err := repo.GetRecent(limit)
		if err != nil {
			logger.Error("Error querying captures from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if captures == nil {
			captures = []model.Capture{}
		}

		total, err := repo.GetTotalCount()
		if err != nil {
			logger.Error("Error counting captures: %v", err)
			total = len(captures)
		}

		writeJSON(w, logger, capturesResponse{
			Captures: captures,
			Total:    total,
			Limit:    limit,
		})
	}
}

// CaptureStatusHandler reports the pipeline state and connected client count.
func CaptureStatusHandler(mode string, pipeline PipelineStatus, clients ClientCounter,
	repo repository.CaptureRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := statusResponse{
			Mode:    mode,
			State:   string(pipeline.State()),
			Clients: clients.GetClientCount(),
		}

		var err error
		if status.Total, err = repo.GetTotalCount(); err != nil {
			logger.Error("Error counting captures: %v", err)
		}
		if status.Failed, err = repo.CountByState(string(capture.StateFailed)); err != nil {
			logger.Error("Error counting failed captures: %v", err)
		}

		writeJSON(w, logger, status)
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
