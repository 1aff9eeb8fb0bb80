package training

import "errors"

var (
	// ErrMalformedID means a composite training id is missing the delimiter
	// or its trainer-name segment is not a valid encoded token.
	ErrMalformedID = errors.New("malformed training id")

	// ErrNotFound means no backend job matches a looked-up training id.
	ErrNotFound = errors.New("training not found")

	// ErrWrongTrainer means a training id decodes to a trainer name that
	// does not belong to the trainer it was presented to.
	ErrWrongTrainer = errors.New("training id belongs to a different trainer")

	// ErrNotComplete means Load was called before the job reached the
	// COMPLETED state, or after it terminated as CANCELED or ERRORED.
	ErrNotComplete = errors.New("training has not completed")
)
