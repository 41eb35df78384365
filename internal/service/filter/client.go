// Package filter is a client for the remote image-filter service: submit a
// picture, poll the job, download the filtered result.
package filter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"picturebridge/internal/config"
	"picturebridge/internal/model"

	"github.com/go-resty/resty/v2"
)

// ErrJobFailed is returned when the service reports the job as failed.
var ErrJobFailed = errors.New("remote filter job failed")

type Client struct {
	restyClient *resty.Client
	baseURL     string
	filterName  string
}

// JobStatus is the body of GET {base}/images/{id}.
type JobStatus struct {
	Status    json.RawMessage `json:"status"`
	ResultURL string          `json:"result_url"`
}

// Complete reports whether the job is done. The service may report this as
// the string "complete", the boolean true or the number 1.
func (s JobStatus) Complete() bool {
	var str string
	if err := json.Unmarshal(s.Status, &str); err == nil {
		return strings.EqualFold(str, "complete") || strings.EqualFold(str, "completed")
	}
	var b bool
	if err := json.Unmarshal(s.Status, &b); err == nil {
		return b
	}
	var n float64
	if err := json.Unmarshal(s.Status, &n); err == nil {
		return n == 1
	}
	return false
}

// Failed reports whether the service gave up on the job.
func (s JobStatus) Failed() bool {
	var str string
	if err := json.Unmarshal(s.Status, &str); err == nil {
		return strings.EqualFold(str, "failed") || strings.EqualFold(str, "error")
	}
	return false
}

type submitResponse struct {
	ID string `json:"id"`
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg config.FilterConfig) *Client {
	restyClient := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", "picturebridge/1").
		SetHeader("Accept", "application/json")

	return &Client{
		restyClient: restyClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		filterName:  cfg.Name,
	}
}

// FilterName returns the filter applied to every submitted picture.
func (c *Client) FilterName() string {
	return c.filterName
}

// Submit uploads shot with the configured filter and returns the job id.
func (c *Client) Submit(ctx context.Context, shot *model.Shot) (string, error) {
	req := c.restyClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{"filter": c.filterName})

	switch {
	case shot.Data != nil:
		req.SetFileReader("image", filepath.Base(shot.Path), bytes.NewReader(shot.Data))
	case shot.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(shot.Base64)
		if err != nil {
			return "", fmt.Errorf("failed to decode base64 picture: %w", err)
		}
		req.SetFileReader("image", filepath.Base(shot.Path), bytes.NewReader(data))
	default:
		req.SetFile("image", shot.Path)
	}

	resp, err := req.Post(c.baseURL + "/images")
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload rejected: %s", resp.Status())
	}

	var body submitResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if body.ID == "" {
		return "", fmt.Errorf("upload response carries no job id")
	}
	return body.ID, nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	resp, err := c.restyClient.R().
		SetContext(ctx).
		Get(c.baseURL + "/images/" + url.PathEscape(jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to poll job %s: %w", jobID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("poll of job %s rejected: %s", jobID, resp.Status())
	}

	var status JobStatus
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return nil, fmt.Errorf("failed to decode job %s status: %w", jobID, err)
	}
	return &status, nil
}

// Download opens the resource at resultURL. The caller must close the
// returned body.
func (c *Client) Download(ctx context.Context, resultURL string) (io.ReadCloser, error) {
	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Accept", "image/*").
		SetDoNotParseResponse(true).
		Get(resultURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", resultURL, err)
	}

	body := resp.RawBody()
	if resp.IsError() {
		body.Close()
		return nil, fmt.Errorf("download of %s rejected: %s", resultURL, resp.Status())
	}
	return body, nil
}
