package training

// Status is the lifecycle state of a training job. A job occupies exactly
// one state at any observation instant. The set is closed: new states are a
// breaking change for every backend.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
	StatusErrored   Status = "ERRORED"
)

// Terminal reports whether no further transition can occur. Transition
// enforcement itself belongs to backends, not to this type.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusErrored:
		return true
	}
	return false
}

// Known reports whether s is one of the five defined states.
func (s Status) Known() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusCompleted, StatusCanceled, StatusErrored:
		return true
	}
	return false
}
