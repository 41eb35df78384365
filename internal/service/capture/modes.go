package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"picturebridge/internal/service/filter"
	"picturebridge/internal/service/storage"
)

// runFilter captures one picture, has the remote service filter it and
// stores the filtered copy next to it. The original name is announced.
func (p *Pipeline) runFilter(ctx context.Context, id string) ([]string, error) {
	if p.opts.Filter == nil {
		return nil, fmt.Errorf("no filter service configured")
	}

	p.setState(id, StateCapturing)
	name, shot, err := p.shoot(ctx)
	if err != nil {
		return nil, err
	}

	p.setState(id, StateUploading)
	jobID, err := p.opts.Filter.Submit(ctx, shot)
	if err != nil {
		return nil, err
	}
	p.opts.Logger.Info("Capture %s: %s submitted as job %s", id, name, jobID)

	p.setState(id, StatePolling)
	resultURL, err := p.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}

	p.setState(id, StateDownloading)
	filtered := storage.FilteredName(name, p.opts.Filter.FilterName())
	body, err := p.opts.Filter.Download(ctx, resultURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	n, err := p.opts.Store.WriteFrom(filtered, body)
	if err != nil {
		return nil, err
	}
	p.opts.Logger.Info("Capture %s: stored %s (%d bytes)", id, filtered, n)

	return []string{name}, nil
}

// poll asks for the job status once per poll interval until it completes,
// fails or the poll timeout passes.
func (p *Pipeline) poll(ctx context.Context, jobID string) (string, error) {
	pollCtx := ctx
	if p.opts.PollTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, p.opts.PollTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return "", p.pollError(ctx, pollCtx, jobID)
		case <-ticker.C:
		}

		status, err := p.opts.Filter.Status(pollCtx, jobID)
		if err != nil {
			if pollCtx.Err() != nil {
				return "", p.pollError(ctx, pollCtx, jobID)
			}
			return "", err
		}

		switch {
		case status.Failed():
			return "", fmt.Errorf("job %s: %w", jobID, filter.ErrJobFailed)
		case status.Complete():
			if status.ResultURL == "" {
				return "", fmt.Errorf("job %s completed without a result url", jobID)
			}
			return status.ResultURL, nil
		}
	}
}

func (p *Pipeline) pollError(parent, pollCtx context.Context, jobID string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("job %s after %s: %w", jobID, p.opts.PollTimeout, ErrProcessingTimedOut)
	}
	return pollCtx.Err()
}

// runBurst takes BurstSize pictures one after another.
func (p *Pipeline) runBurst(ctx context.Context, id string) ([]string, error) {
	p.setState(id, StateCapturing)

	names := make([]string, 0, BurstSize)
	for i := 0; i < BurstSize; i++ {
		name, _, err := p.shoot(ctx)
		if err != nil {
			return nil, fmt.Errorf("shot %d of %d: %w", i+1, BurstSize, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// runPlaceholder takes a picture and then writes the fixed animated
// placeholder, which is what gets announced.
func (p *Pipeline) runPlaceholder(ctx context.Context, id string) ([]string, error) {
	p.setState(id, StateCapturing)
	if _, _, err := p.shoot(ctx); err != nil {
		return nil, err
	}

	data, err := PlaceholderGIF()
	if err != nil {
		return nil, err
	}
	if err := p.opts.Store.WriteFile(PlaceholderName, data); err != nil {
		return nil, err
	}
	return []string{PlaceholderName}, nil
}
