// Package events publishes domain events for entity mutations so downstream
// consumers (notifications, analytics) can react without coupling to the
// CRUD pipeline.
package events

import (
	"context"
	"time"
)

const (
	Source  = "observation-service"
	Version = "1.0"
)

// Event is the envelope every published message carries.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Event types emitted by the CRUD pipeline.
const (
	TeacherCreated     = "teacher.created"
	TeacherUpdated     = "teacher.updated"
	TeacherDeleted     = "teacher.deleted"
	ProjectCreated     = "project.created"
	ProjectUpdated     = "project.updated"
	ProjectDeleted     = "project.deleted"
	ObservationCreated = "observation.created"
	ObservationUpdated = "observation.updated"
	ObservationDeleted = "observation.deleted"
)

// EventPublisher sends events to the configured transport. Publishing is
// best-effort and happens after commit; a publish failure never rolls back
// the entity mutation.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
	Close() error
}
