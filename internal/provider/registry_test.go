package provider

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

type nopAdapter struct {
	id ID
}

func (a nopAdapter) Name() ID           { return a.id }
func (a nopAdapter) Artifact() Artifact { return ArtifactImage }
func (a nopAdapter) Submit(context.Context, SubmitInput) (TaskHandle, error) {
	return TaskHandle{}, nil
}
func (a nopAdapter) Poll(context.Context, TaskHandle) (PollOutcome, error) {
	return PollOutcome{State: StateRunning}, nil
}
func (a nopAdapter) ParseResult(json.RawMessage) (*Result, error) {
	return &Result{}, nil
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("nope")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	r.Register("fashnai", Entry{Adapter: nopAdapter{id: IDFashn}})

	e, err := r.Resolve("fashnai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Adapter.Name() != IDFashn {
		t.Errorf("expected fashn adapter, got %s", e.Adapter.Name())
	}
}

func TestRegistry_ModelsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("vmodel", Entry{Adapter: nopAdapter{id: IDVModel}})
	r.Register("fashnai", Entry{Adapter: nopAdapter{id: IDFashn}})
	r.Register("klingai", Entry{Adapter: nopAdapter{id: IDKolors}})

	want := []string{"fashnai", "klingai", "vmodel"}
	if got := r.Models(); !reflect.DeepEqual(got, want) {
		t.Errorf("Models() = %v, want %v", got, want)
	}
}
