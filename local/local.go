// Package local implements an in-process trainer backend. Each training
// job runs the module's Train on its own goroutine, bounded by a weighted
// semaphore, and completed models are persisted to the future's derived
// save path before the job is marked complete.
package local

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/trainops/trainerd/config"
	"github.com/trainops/trainerd/module"
	"github.com/trainops/trainerd/training"
)

// Type is the registry type name for this backend.
const Type = "local"

const defaultMaxJobs = 4

type options struct {
	MaxJobs int64 `yaml:"max_jobs"`
}

// Trainer runs training jobs inside the current process.
type Trainer struct {
	name string
	sem  *semaphore.Weighted

	mu      sync.Mutex
	futures map[string]*Future
}

// New constructs a local trainer. Config options:
//
//	max_jobs: maximum number of concurrently running jobs (default 4)
func New(instanceName string, cfg map[string]any) (training.Trainer, error) {
	opts := options{MaxJobs: defaultMaxJobs}
	if err := config.Decode(cfg, &opts); err != nil {
		return nil, err
	}
	if opts.MaxJobs <= 0 {
		return nil, fmt.Errorf("max_jobs must be positive, got %d", opts.MaxJobs)
	}

	return &Trainer{
		name:    instanceName,
		sem:     semaphore.NewWeighted(opts.MaxJobs),
		futures: map[string]*Future{},
	}, nil
}

// Name returns the configured instance name.
func (t *Trainer) Name() string { return t.name }

// Train dispatches the module's Train onto a goroutine and returns the
// job's future immediately.
func (t *Trainer) Train(ctx context.Context, mod module.Module, req training.TrainRequest) (training.ModelFuture, error) {
	base, err := training.NewFutureBase(t.name, uuid.New().String(), req.SaveWithID, req.SavePath)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f := &Future{
		FutureBase: base,
		sem:        t.sem,
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     training.StatusQueued,
	}

	t.mu.Lock()
	t.futures[f.ID()] = f
	t.mu.Unlock()

	log.Printf("Dispatching training %s (module %s)", f.ID(), mod.Name())
	go f.run(runCtx, mod, req.Params)

	return f, nil
}

// GetModelFuture resolves a previously issued training id.
func (t *Trainer) GetModelFuture(ctx context.Context, trainingID string) (training.ModelFuture, error) {
	owner, _, err := training.ParseID(trainingID)
	if err != nil {
		return nil, err
	}
	if owner != t.name {
		return nil, fmt.Errorf("%w: %q was issued by %q, not %q", training.ErrWrongTrainer, trainingID, owner, t.name)
	}

	t.mu.Lock()
	f, ok := t.futures[trainingID]
	t.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", training.ErrNotFound, trainingID)
	}
	return f, nil
}

// Future is the in-process handle to one training job.
type Future struct {
	training.FutureBase

	sem    *semaphore.Weighted
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status training.Status
	model  module.Model
	err    error
}

func (f *Future) run(ctx context.Context, mod module.Module, params map[string]any) {
	defer close(f.done)
	defer f.cancel()

	if err := f.sem.Acquire(ctx, 1); err != nil {
		// Canceled while still queued.
		f.finish(training.StatusCanceled, nil, err)
		return
	}
	defer f.sem.Release(1)

	f.setRunning()

	model, err := mod.Train(ctx, params)
	switch {
	case ctx.Err() != nil:
		f.finish(training.StatusCanceled, nil, ctx.Err())
	case err != nil:
		log.Printf("Training %s errored: %v", f.ID(), err)
		f.finish(training.StatusErrored, nil, err)
	default:
		if path := f.SavePath(); path != "" {
			if err := model.Save(context.Background(), path); err != nil {
				log.Printf("Training %s failed to save model: %v", f.ID(), err)
				f.finish(training.StatusErrored, nil, fmt.Errorf("failed to save trained model: %w", err))
				return
			}
		}
		f.finish(training.StatusCompleted, model, nil)
	}
}

func (f *Future) setRunning() {
	f.mu.Lock()
	f.status = training.StatusRunning
	f.mu.Unlock()
}

func (f *Future) finish(status training.Status, model module.Model, err error) {
	f.mu.Lock()
	f.status = status
	f.model = model
	f.err = err
	f.mu.Unlock()
}

// GetStatus reports the job's current state. Execution failures surface as
// StatusErrored; the error return is always nil for this backend.
func (f *Future) GetStatus(ctx context.Context) (training.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

// Cancel requests termination of the job. Canceling a terminal job is a
// no-op, and repeated calls are safe.
func (f *Future) Cancel(ctx context.Context) error {
	f.mu.Lock()
	terminal := f.status.Terminal()
	f.mu.Unlock()

	if terminal {
		return nil
	}
	f.cancel()
	return nil
}

// Wait blocks until the job reaches a terminal state or ctx is done. Any
// number of callers may wait concurrently.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load returns the trained model once the job has completed.
func (f *Future) Load(ctx context.Context) (module.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != training.StatusCompleted {
		return nil, fmt.Errorf("%w: %s is %s", training.ErrNotComplete, f.ID(), f.status)
	}
	return f.model, nil
}

// Err returns the captured execution error for an errored or canceled job,
// or nil. It is the local backend's diagnostic payload.
func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Diagnostic returns the captured execution error's text, or "".
func (f *Future) Diagnostic(ctx context.Context) string {
	if err := f.Err(); err != nil {
		return err.Error()
	}
	return ""
}
