// Package training defines the contract by which the orchestration layer
// tracks asynchronous training jobs across pluggable backends: the job
// lifecycle states, the reversibly-encoded composite training id, the
// save-path derivation, and the Trainer/ModelFuture interfaces every
// backend implements.
package training

import (
	"context"

	"github.com/trainops/trainerd/module"
)

// TrainRequest carries the backend-independent options accepted by every
// Train call. Backend-specific knobs belong in the trainer's own config.
type TrainRequest struct {
	// Params are passed through to the module's Train.
	Params map[string]any

	// SavePath is the base path the trained model should be persisted
	// under; empty means the backend keeps the model wherever it likes.
	SavePath string

	// SaveWithID asks for the training id to be embedded in the save path.
	SaveWithID bool
}

// Trainer starts and tracks training jobs of one kind. A Trainer instance
// is long-lived, constructed once from configuration, and must be safe for
// concurrent use.
type Trainer interface {
	// Name returns the configured instance name. It is what the composite
	// training id encodes.
	Name() string

	// Train dispatches a training job for the module and returns its
	// future. Dispatch is synchronous but never blocks for job completion,
	// and every call yields a future with a fresh unique id.
	Train(ctx context.Context, mod module.Module, req TrainRequest) (ModelFuture, error)

	// GetModelFuture resolves a previously issued training id back to a
	// live future, e.g. after a process restart. It fails with ErrNotFound
	// when no job matches, or ErrWrongTrainer when the id was issued by a
	// different trainer instance.
	GetModelFuture(ctx context.Context, trainingID string) (ModelFuture, error)
}
