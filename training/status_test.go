package training

import "testing"

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusQueued:    false,
		StatusRunning:   false,
		StatusCompleted: true,
		StatusCanceled:  true,
		StatusErrored:   true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestStatusKnown(t *testing.T) {
	for _, status := range []Status{StatusQueued, StatusRunning, StatusCompleted, StatusCanceled, StatusErrored} {
		if !status.Known() {
			t.Errorf("%s should be a known status", status)
		}
	}

	if Status("PAUSED").Known() {
		t.Error("PAUSED is not part of the closed status set")
	}
}
