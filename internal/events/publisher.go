package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const topic = "observation-service.events"

// watermillPublisher wraps any watermill publisher behind EventPublisher.
type watermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewChannelPublisher builds an in-process publisher; the default when no
// brokers are configured.
func NewChannelPublisher(logger *slog.Logger) EventPublisher {
	pub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	return &watermillPublisher{publisher: pub, logger: logger}
}

// NewKafkaPublisher builds a Kafka-backed publisher.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (EventPublisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return &watermillPublisher{publisher: pub, logger: logger}, nil
}

func (p *watermillPublisher) Publish(ctx context.Context, eventType string, data any) error {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    Source,
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", eventType)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records events for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, eventType string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    Source,
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) GetPublishedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
