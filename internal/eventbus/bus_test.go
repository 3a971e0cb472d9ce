package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewRepositoryEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(RepositoryEventCloned, func(ctx context.Context, event RepositoryEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(RepositoryEventCloned, func(ctx context.Context, event RepositoryEvent) error {
		calledB = true
		return nil
	})

	event := RepositoryEvent{Type: RepositoryEventCloned, RepoName: "demo"}
	if err := bus.Publish(context.Background(), RepositoryEventCloned, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusPublishOnlyMatchingType(t *testing.T) {
	bus := NewExportEventBus()
	called := false
	bus.Subscribe(ExportEventPublished, func(ctx context.Context, event ExportEvent) error {
		called = true
		return nil
	})

	event := ExportEvent{Type: ExportEventCreated, Format: "markdown"}
	if err := bus.Publish(context.Background(), ExportEventCreated, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler for another event type to stay silent")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewAnalysisEventBus()
	called := false
	unsubscribe := bus.Subscribe(AnalysisEventCompleted, func(ctx context.Context, event AnalysisEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	event := AnalysisEvent{Type: AnalysisEventCompleted, Kind: "endpoints"}
	if err := bus.Publish(context.Background(), AnalysisEventCompleted, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewRepositoryEventBus()
	bus.Subscribe(RepositoryEventCloneFailed, func(ctx context.Context, event RepositoryEvent) error {
		return errors.New("err-a")
	})
	bus.Subscribe(RepositoryEventCloneFailed, func(ctx context.Context, event RepositoryEvent) error {
		return errors.New("err-b")
	})

	event := RepositoryEvent{Type: RepositoryEventCloneFailed}
	if err := bus.Publish(context.Background(), RepositoryEventCloneFailed, event); err == nil {
		t.Fatalf("expected error")
	}
}
