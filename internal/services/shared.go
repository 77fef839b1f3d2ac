package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wildwatch-edu/observation-service/internal/events"
	"github.com/wildwatch-edu/observation-service/internal/storage"
)

// decodeBody re-encodes the schema-checked property map into a typed
// request. The map already passed the strict property policy, so decode
// failures here are type mismatches and surface as validation problems.
func decodeBody(body map[string]any, dst any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return nil
}

// probeImageURL verifies that a referenced URL is live and serves an image
// before any record points at it.
func probeImageURL(ctx context.Context, prober storage.Prober, url string) error {
	if url == "" {
		return nil
	}
	if _, err := prober.Probe(ctx, url); err != nil {
		return fmt.Errorf("%w: %v", ErrUnprocessableImage, err)
	}
	return nil
}

// publishEvent emits a domain event after a committed mutation. Publishing
// is best effort; a broker outage never rolls back a commit.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType string, data any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, eventType, data); err != nil {
		logger.Warn("Failed to publish event", "type", eventType, "error", err)
	}
}
