package training

import (
	"context"

	"github.com/trainops/trainerd/module"
)

// ModelFuture is a handle to one in-flight or completed training job. It is
// owned by whoever requested the training; a future's id and save path are
// fixed at construction and never change.
type ModelFuture interface {
	// ID returns the composite training id.
	ID() string

	// SavePath returns the derived save path, or "" if no save path was
	// requested.
	SavePath() string

	// GetStatus polls the backend for the current lifecycle state. A failed
	// job is reported as StatusErrored, not as an error; the error return
	// covers transport problems reaching the backend only.
	GetStatus(ctx context.Context) (Status, error)

	// Cancel requests termination of the job. The effect is asynchronous;
	// canceling an already-terminal job is a no-op.
	Cancel(ctx context.Context) error

	// Wait blocks until the job reaches a terminal state or ctx is done.
	// Any number of callers may wait on the same future.
	Wait(ctx context.Context) error

	// Load returns the trained model. It is only valid once the job has
	// completed; backends reject earlier (or canceled/errored) calls with
	// ErrNotComplete.
	Load(ctx context.Context) (module.Model, error)
}

// FutureBase carries the bookkeeping shared by every concrete future: the
// composite id and the derived save path. Concrete futures embed it by
// value. Construction is pure computation over its inputs; it never
// touches the backend.
type FutureBase struct {
	id       string
	savePath string
}

// NewFutureBase computes the composite id from the owning trainer's name
// and the backend job id, and derives the save path per SavePathWithID.
func NewFutureBase(trainerName, jobID string, saveWithID bool, savePath string) (FutureBase, error) {
	id, err := NewID(trainerName, jobID)
	if err != nil {
		return FutureBase{}, err
	}
	return FutureBase{
		id:       id,
		savePath: SavePathWithID(savePath, saveWithID, id),
	}, nil
}

func (b FutureBase) ID() string { return b.id }

func (b FutureBase) SavePath() string { return b.savePath }
