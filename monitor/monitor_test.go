package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trainops/trainerd/local"
	"github.com/trainops/trainerd/module"
	"github.com/trainops/trainerd/store"
	"github.com/trainops/trainerd/training"
)

type memRecords struct {
	mu   sync.Mutex
	recs map[string]*store.TrainingRecord
}

func (r *memRecords) add(rec *store.TrainingRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs[rec.ID] = rec
}

func (r *memRecords) status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recs[id].Status
}

func (r *memRecords) ListActive() ([]store.TrainingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []store.TrainingRecord
	for _, rec := range r.recs {
		if !training.Status(rec.Status).Terminal() {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memRecords) UpdateStatus(id string, status training.Status, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recs[id]; ok {
		rec.Status = string(status)
		rec.Message = message
	}
	return nil
}

type instantModel struct{}

func (instantModel) Save(ctx context.Context, dir string) error { return nil }

type instantModule struct{}

func (instantModule) Name() string { return "instant" }

func (instantModule) Train(ctx context.Context, params map[string]any) (module.Model, error) {
	return instantModel{}, nil
}

func (instantModule) Load(ctx context.Context, dir string) (module.Model, error) {
	return instantModel{}, nil
}

func TestMonitorRecordsTerminalStatus(t *testing.T) {
	trainer, err := local.New("local", nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	future, err := trainer.Train(ctx, instantModule{}, training.TrainRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if err := future.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	records := &memRecords{recs: map[string]*store.TrainingRecord{}}
	records.add(&store.TrainingRecord{
		ID:      future.ID(),
		Trainer: "local",
		Status:  string(training.StatusQueued),
	})

	mon := New(records, map[string]training.Trainer{"local": trainer}, 10*time.Millisecond)
	mon.Start()
	defer mon.Stop()

	deadline := time.After(2 * time.Second)
	for records.status(future.ID()) != string(training.StatusCompleted) {
		select {
		case <-deadline:
			t.Fatalf("record never reached COMPLETED, stuck at %s", records.status(future.ID()))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type failingModule struct{}

func (failingModule) Name() string { return "failing" }

func (failingModule) Train(ctx context.Context, params map[string]any) (module.Model, error) {
	return nil, errors.New("loss diverged at step 40")
}

func (failingModule) Load(ctx context.Context, dir string) (module.Model, error) {
	return nil, errors.New("nothing to load")
}

func TestMonitorRecordsFailureDiagnostic(t *testing.T) {
	trainer, err := local.New("local", nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	future, err := trainer.Train(ctx, failingModule{}, training.TrainRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if err := future.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	records := &memRecords{recs: map[string]*store.TrainingRecord{}}
	records.add(&store.TrainingRecord{
		ID:      future.ID(),
		Trainer: "local",
		Status:  string(training.StatusQueued),
	})

	mon := New(records, map[string]training.Trainer{"local": trainer}, 10*time.Millisecond)
	mon.Start()
	defer mon.Stop()

	deadline := time.After(2 * time.Second)
	for records.status(future.ID()) != string(training.StatusErrored) {
		select {
		case <-deadline:
			t.Fatalf("record never reached ERRORED, stuck at %s", records.status(future.ID()))
		case <-time.After(10 * time.Millisecond):
		}
	}

	records.mu.Lock()
	message := records.recs[future.ID()].Message
	records.mu.Unlock()
	if !strings.Contains(message, "loss diverged") {
		t.Errorf("record message = %q, want the training failure detail", message)
	}
}

func TestMonitorMarksVanishedJobs(t *testing.T) {
	trainer, err := local.New("local", nil)
	if err != nil {
		t.Fatal(err)
	}

	id, err := training.NewID("local", "vanished-job")
	if err != nil {
		t.Fatal(err)
	}

	records := &memRecords{recs: map[string]*store.TrainingRecord{}}
	records.add(&store.TrainingRecord{
		ID:      id,
		Trainer: "local",
		Status:  string(training.StatusRunning),
	})

	mon := New(records, map[string]training.Trainer{"local": trainer}, 10*time.Millisecond)
	mon.Start()
	defer mon.Stop()

	deadline := time.After(2 * time.Second)
	for records.status(id) != string(training.StatusErrored) {
		select {
		case <-deadline:
			t.Fatalf("vanished job never marked ERRORED, stuck at %s", records.status(id))
		case <-time.After(10 * time.Millisecond):
		}
	}
}
