package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of event
type EventType string

const (
	// Contact events
	EventTypeContactCreated EventType = "contact.created"
	EventTypeContactUpdated EventType = "contact.updated"
	EventTypeContactDeleted EventType = "contact.deleted"

	// Session events
	EventTypeDuplicateCandidate EventType = "session.duplicate_candidate"
	EventTypeSessionFinished    EventType = "session.finished"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// ContactChangedEvent is emitted when a contact is created, updated or deleted
type ContactChangedEvent struct {
	BaseEvent
	BookID    string            `json:"book_id"`
	ContactID string            `json:"contact_id"`
	Fields    map[string]string `json:"fields,omitempty"`
	Reason    string            `json:"reason,omitempty"` // manual, auto_remove, ingest
}

// DuplicateCandidateEvent is emitted when the scan surfaces a candidate pair
type DuplicateCandidateEvent struct {
	BaseEvent
	SessionID  string   `json:"session_id"`
	ContactAID string   `json:"contact_a_id"`
	ContactBID string   `json:"contact_b_id"`
	Ordering   int      `json:"ordering"`
	MatchedOn  []string `json:"matched_on,omitempty"`
	DiffFields []string `json:"diff_fields,omitempty"`
}

// SessionFinishedEvent is emitted when a duplicate search session ends
type SessionFinishedEvent struct {
	BaseEvent
	SessionID     string   `json:"session_id"`
	RecordsBefore int      `json:"records_before"`
	Changed       int      `json:"changed"`
	Skipped       int      `json:"skipped"`
	DeletedBook1  int      `json:"deleted_book1"`
	DeletedBook2  int      `json:"deleted_book2"`
	AutoDeleted   int      `json:"auto_deleted"`
	DiffFields    []string `json:"diff_fields,omitempty"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}
}
