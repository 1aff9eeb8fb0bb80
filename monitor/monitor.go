// Package monitor keeps the training-record store in sync with live
// backend state by periodically polling the futures of all non-terminal
// trainings.
package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/trainops/trainerd/store"
	"github.com/trainops/trainerd/training"
)

// Records is the slice of the record store the monitor needs.
type Records interface {
	ListActive() ([]store.TrainingRecord, error)
	UpdateStatus(id string, status training.Status, message string) error
}

// diagnoser is implemented by backends that can attach failure detail to an
// errored training.
type diagnoser interface {
	Diagnostic(ctx context.Context) string
}

// Monitor polls active training records and writes status changes back to
// the store.
type Monitor struct {
	store    Records
	trainers map[string]training.Trainer
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a monitor over the given trainer instances, keyed by
// instance name.
func New(st Records, trainers map[string]training.Trainer, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		store:    st,
		trainers: trainers,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
	log.Printf("Training monitor started - polling every %s", m.interval)
}

// Stop stops the monitor gracefully.
func (m *Monitor) Stop() {
	close(m.stopChan)
	m.wg.Wait()
	log.Println("Training monitor stopped")
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.checkActive()
		}
	}
}

func (m *Monitor) checkActive() {
	recs, err := m.store.ListActive()
	if err != nil {
		log.Printf("Failed to list active trainings: %v", err)
		return
	}

	for _, rec := range recs {
		m.checkTraining(rec)
	}
}

func (m *Monitor) checkTraining(rec store.TrainingRecord) {
	trainer, ok := m.trainers[rec.Trainer]
	if !ok {
		log.Printf("Training %s belongs to unconfigured trainer %q", rec.ID, rec.Trainer)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	future, err := trainer.GetModelFuture(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, training.ErrNotFound) {
			// The backend no longer knows the job; stop re-polling it.
			m.update(rec, training.StatusErrored, "backend no longer tracks this training")
			return
		}
		log.Printf("Failed to resolve future for %s: %v", rec.ID, err)
		return
	}

	status, err := future.GetStatus(ctx)
	if err != nil {
		log.Printf("Failed to get status for %s: %v", rec.ID, err)
		return
	}

	if string(status) != rec.Status {
		message := ""
		if status == training.StatusErrored {
			if d, ok := future.(diagnoser); ok {
				message = d.Diagnostic(ctx)
			}
		}
		m.update(rec, status, message)
	}
}

func (m *Monitor) update(rec store.TrainingRecord, status training.Status, message string) {
	log.Printf("Training %s status changed: %s -> %s", rec.ID, rec.Status, status)
	if err := m.store.UpdateStatus(rec.ID, status, message); err != nil {
		log.Printf("Failed to update training status: %v", err)
	}
}
