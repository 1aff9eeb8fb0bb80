package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/trainops/trainerd/module"
	"github.com/trainops/trainerd/training"
)

type nopTrainer struct {
	name string
	cfg  map[string]any
}

func (t *nopTrainer) Name() string { return t.name }

func (t *nopTrainer) Train(ctx context.Context, mod module.Module, req training.TrainRequest) (training.ModelFuture, error) {
	return nil, training.ErrNotFound
}

func (t *nopTrainer) GetModelFuture(ctx context.Context, trainingID string) (training.ModelFuture, error) {
	return nil, training.ErrNotFound
}

func TestRegisterAndNew(t *testing.T) {
	Register("nop", func(instanceName string, cfg map[string]any) (training.Trainer, error) {
		return &nopTrainer{name: instanceName, cfg: cfg}, nil
	})

	trainer, err := New("my-instance", "nop", map[string]any{"option": 1})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if trainer.Name() != "my-instance" {
		t.Errorf("instance name = %q", trainer.Name())
	}
	if trainer.(*nopTrainer).cfg["option"] != 1 {
		t.Errorf("config not passed through: %v", trainer.(*nopTrainer).cfg)
	}
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("x", "no-such-backend", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown type")
	}
	if !strings.Contains(err.Error(), "no-such-backend") {
		t.Errorf("error should name the unknown type: %v", err)
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic on duplicate registration")
		}
	}()

	Register("dup", func(string, map[string]any) (training.Trainer, error) { return nil, nil })
	Register("dup", func(string, map[string]any) (training.Trainer, error) { return nil, nil })
}
