package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMockPublisherRecordsEnvelope(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())

	err := publisher.Publish(context.Background(), ObservationCreated, map[string]any{"id": uint(7)})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}

	event := published[0]
	if event.Type != ObservationCreated {
		t.Errorf("type = %q, want %q", event.Type, ObservationCreated)
	}
	if event.Source != Source || event.Version != Version {
		t.Errorf("envelope = (%q, %q), want (%q, %q)", event.Source, event.Version, Source, Version)
	}
	if event.ID == "" {
		t.Error("event has no id")
	}
	if event.Timestamp.IsZero() {
		t.Error("event has no timestamp")
	}

	publisher.ClearEvents()
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("events after clear = %d, want 0", len(got))
	}
}

func TestChannelPublisherDelivers(t *testing.T) {
	publisher := NewChannelPublisher(testLogger())
	defer publisher.Close()

	if err := publisher.Publish(context.Background(), TeacherCreated, map[string]any{"id": uint(1)}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
