package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	events []string
}

func (r *recorder) component(name string, startErr, stopErr error) Component {
	return Hooks{
		OnStart: func(context.Context) error {
			r.events = append(r.events, "start:"+name)
			return startErr
		},
		OnStop: func(context.Context) error {
			r.events = append(r.events, "stop:"+name)
			return stopErr
		},
	}
}

func TestRuntimeStartStopOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	runtime := NewRuntime().
		Add("store", rec.component("store", nil, nil)).
		Add("gateway", rec.component("gateway", nil, nil)).
		Add("nil", nil).
		Add("scheduler", rec.component("scheduler", nil, nil))

	if err := runtime.Start(context.Background()); err != nil {
		t.Fatalf("start runtime: %v", err)
	}
	if err := runtime.Stop(context.Background()); err != nil {
		t.Fatalf("stop runtime: %v", err)
	}
	if err := runtime.Stop(context.Background()); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}

	want := []string{
		"start:store",
		"start:gateway",
		"start:scheduler",
		"stop:scheduler",
		"stop:gateway",
		"stop:store",
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestRuntimeStartFailureStopsStartedComponents(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	boom := errors.New("boom")
	runtime := NewRuntime().
		Add("store", rec.component("store", nil, nil)).
		Add("gateway", rec.component("gateway", boom, nil)).
		Add("scheduler", rec.component("scheduler", nil, nil))

	err := runtime.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}

	want := []string{"start:store", "start:gateway", "stop:store"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Fatalf("unexpected events (-want +got):\n%s", diff)
	}
}

func TestRuntimeStopJoinsErrors(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	first, second := errors.New("first"), errors.New("second")
	runtime := NewRuntime().
		Add("a", rec.component("a", nil, first)).
		Add("b", rec.component("b", nil, second))

	if err := runtime.Start(context.Background()); err != nil {
		t.Fatalf("start runtime: %v", err)
	}
	err := runtime.Stop(context.Background())
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both stop errors, got %v", err)
	}
	if diff := cmp.Diff([]string{"start:a", "start:b", "stop:b", "stop:a"}, rec.events); diff != "" {
		t.Fatalf("every component must be stopped (-want +got):\n%s", diff)
	}
}
