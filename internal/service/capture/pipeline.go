// Package capture runs the picture workflow triggered by the microcontroller
// or a browser: take picture(s), optionally pass them through the remote
// filter service, then announce the result to every browser.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"picturebridge/internal/config"
	"picturebridge/internal/logger"
	"picturebridge/internal/model"
	"picturebridge/internal/repository"
	"picturebridge/internal/service/filter"
	"picturebridge/internal/service/storage"

	"github.com/google/uuid"
)

var (
	// ErrCaptureFailed wraps every error that ends a run without an announcement.
	ErrCaptureFailed = errors.New("capture failed")
	// ErrProcessingTimedOut is returned when the remote job does not finish
	// within the poll timeout.
	ErrProcessingTimedOut = fmt.Errorf("%w: remote processing timed out", ErrCaptureFailed)
	// ErrBusy is returned by Submit when a run is in flight and another is
	// already waiting.
	ErrBusy = errors.New("capture queue is full")
)

// BurstSize is the number of pictures taken in burst mode.
const BurstSize = 3

// Camera takes one picture and writes it to path.
type Camera interface {
	Capture(ctx context.Context, path string) (*model.Shot, error)
}

// FilterService is the remote image-filter API.
type FilterService interface {
	FilterName() string
	Submit(ctx context.Context, shot *model.Shot) (string, error)
	Status(ctx context.Context, jobID string) (*filter.JobStatus, error)
	Download(ctx context.Context, resultURL string) (io.ReadCloser, error)
}

// Notifier delivers events to browsers.
type Notifier interface {
	Broadcast(event, payload string)
	SendTo(clientID, event, payload string)
}

// Request starts one run. Origin is model.OriginSerial or a client id.
type Request struct {
	Origin string
}

// Result lists the announced file names of a finished run.
type Result struct {
	ID        string
	Filenames []string
}

type Options struct {
	Mode         string
	Camera       Camera
	Filter       FilterService // required in filter mode
	Store        *storage.ImageStore
	Notifier     Notifier
	History      repository.CaptureRepository // optional
	Logger       *logger.Logger
	Extension    string
	PollInterval time.Duration
	PollTimeout  time.Duration // 0 polls until the job completes
}

// Pipeline executes capture runs one at a time. A single-slot queue sits
// in front of the worker: one run may wait while another is in flight,
// anything beyond that is rejected.
type Pipeline struct {
	opts  Options
	queue chan Request
	newID func() string
	done  chan struct{}

	mu    sync.RWMutex
	state State
}

// NewPipeline creates a pipeline. Call Run to start its worker.
func NewPipeline(opts Options) *Pipeline {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.Extension == "" {
		opts.Extension = ".jpg"
	}
	return &Pipeline{
		opts:  opts,
		queue: make(chan Request, 1),
		newID: uuid.NewString,
		done:  make(chan struct{}),
		state: StateIdle,
	}
}

// Run processes queued requests until ctx is cancelled. A run in flight
// when ctx is cancelled is finished, history write included, before Run
// returns.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.done)
	p.opts.Logger.Info("Capture worker started in %s mode", p.opts.Mode)
	for {
		select {
		case <-ctx.Done():
			p.opts.Logger.Info("Capture worker stopped")
			return
		case req := <-p.queue:
			p.Execute(ctx, req)
		}
	}
}

// Done is closed once Run has returned.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Submit queues a request without blocking. It returns ErrBusy when the
// queue slot is already taken.
func (p *Pipeline) Submit(req Request) error {
	select {
	case p.queue <- req:
		return nil
	default:
		p.opts.Logger.Warning("Capture request from %s dropped: a capture is running and another is queued", req.Origin)
		return ErrBusy
	}
}

// State returns the state of the run in progress, or StateIdle.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Pipeline) setState(id string, s State) {
	p.mu.Lock()
	prev := p.state
	p.state = s
	p.mu.Unlock()
	p.opts.Logger.Info("Capture %s: %s -> %s", id, prev, s)
}

// Execute performs one run synchronously. On success the filenames have
// been announced with newPicture; on failure the originating client (if
// any) receives captureFailed and the error wraps ErrCaptureFailed.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Result, error) {
	id := p.newID()
	record := &model.Capture{
		ID:        id,
		Origin:    req.Origin,
		Mode:      p.opts.Mode,
		StartedAt: time.Now(),
	}

	names, err := p.run(ctx, id)
	if err == nil {
		err = p.announce(id, names)
	}

	record.FinishedAt = time.Now()
	if err != nil {
		if !errors.Is(err, ErrCaptureFailed) {
			err = fmt.Errorf("%w: %w", ErrCaptureFailed, err)
		}
		p.setState(id, StateFailed)
		record.State = string(StateFailed)
		record.Error = err.Error()
		p.opts.Logger.Error("Capture %s from %s failed: %v", id, req.Origin, err)
		if req.Origin != "" && req.Origin != model.OriginSerial {
			p.opts.Notifier.SendTo(req.Origin, model.EventCaptureFailed, err.Error())
		}
	} else {
		record.State = string(StateAnnounced)
		record.Filenames = names
	}

	p.save(record)
	p.setState(id, StateIdle)

	if err != nil {
		return nil, err
	}
	return &Result{ID: id, Filenames: names}, nil
}

func (p *Pipeline) run(ctx context.Context, id string) ([]string, error) {
	switch p.opts.Mode {
	case config.ModeFilter:
		return p.runFilter(ctx, id)
	case config.ModeBurst:
		return p.runBurst(ctx, id)
	case config.ModePlaceholder:
		return p.runPlaceholder(ctx, id)
	default:
		return nil, fmt.Errorf("unknown capture mode %q", p.opts.Mode)
	}
}

// announce checks every file is in place before telling the browsers.
func (p *Pipeline) announce(id string, names []string) error {
	for _, name := range names {
		if !p.opts.Store.Ready(name) {
			return fmt.Errorf("%s is missing from %s", name, p.opts.Store.Dir())
		}
	}
	payload := strings.Join(names, ",")
	p.opts.Notifier.Broadcast(model.EventNewPicture, payload)
	p.setState(id, StateAnnounced)
	return nil
}

func (p *Pipeline) save(record *model.Capture) {
	if p.opts.History == nil {
		return
	}
	if err := p.opts.History.Insert(record); err != nil {
		p.opts.Logger.Error("Failed to record capture %s: %v", record.ID, err)
	}
}

// shoot takes one picture under a fresh name.
func (p *Pipeline) shoot(ctx context.Context) (string, *model.Shot, error) {
	name := p.opts.Store.NewName(p.opts.Extension)
	shot, err := p.opts.Camera.Capture(ctx, p.opts.Store.Path(name))
	if err != nil {
		return "", nil, fmt.Errorf("camera: %w", err)
	}
	return name, shot, nil
}
