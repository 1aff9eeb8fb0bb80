package module

import (
	"context"
	"testing"
)

type dummyModel struct{}

func (dummyModel) Save(ctx context.Context, dir string) error { return nil }

type dummyModule struct{ name string }

func (m dummyModule) Name() string { return m.name }

func (m dummyModule) Train(ctx context.Context, params map[string]any) (Model, error) {
	return dummyModel{}, nil
}

func (m dummyModule) Load(ctx context.Context, dir string) (Model, error) {
	return dummyModel{}, nil
}

func TestRegisterAndGet(t *testing.T) {
	if err := Register(dummyModule{name: "reg-test"}); err != nil {
		t.Fatal(err)
	}

	mod, err := Get("reg-test")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if mod.Name() != "reg-test" {
		t.Errorf("module name = %q", mod.Name())
	}

	if err := Register(dummyModule{name: "reg-test"}); err == nil {
		t.Error("expected an error on duplicate registration")
	}

	if _, err := Get("never-registered"); err == nil {
		t.Error("expected an error for an unknown module")
	}
}
