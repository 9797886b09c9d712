// Package events handles event emission for contact and session lifecycle
// changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/dedup"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes contact and session events. It implements dedup.Notifier,
// so an emitter can be handed straight to a session; notifier failures are
// logged and never abort a scan.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// DuplicateCandidate emits a session.duplicate_candidate event
func (e *Emitter) DuplicateCandidate(ctx context.Context, sessionID string, pair dedup.Pair) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.DuplicateCandidate")
	defer span.End()

	payload := DuplicateCandidateEvent{
		BaseEvent:  NewBaseEvent(EventTypeDuplicateCandidate),
		SessionID:  sessionID,
		ContactAID: pair.RecordA.ID,
		ContactBID: pair.RecordB.ID,
		Ordering:   int(pair.Comparison.Ordering),
		MatchedOn:  matchedOn(pair),
		DiffFields: pair.Comparison.DiffFields,
	}
	data, _ := json.Marshal(payload)

	event := &kafka.SessionEvent{
		EventType: string(EventTypeDuplicateCandidate),
		SessionID: sessionID,
		Data:      data,
	}
	if err := e.producer.PublishSessionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit session.duplicate_candidate event")
	}
}

// SessionFinished emits a session.finished event
func (e *Emitter) SessionFinished(ctx context.Context, sessionID string, stats dedup.Stats) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.SessionFinished")
	defer span.End()

	payload := SessionFinishedEvent{
		BaseEvent:     NewBaseEvent(EventTypeSessionFinished),
		SessionID:     sessionID,
		RecordsBefore: stats.RecordsBefore,
		Changed:       stats.Changed,
		Skipped:       stats.Skipped,
		DeletedBook1:  stats.DeletedBook1,
		DeletedBook2:  stats.DeletedBook2,
		AutoDeleted:   stats.AutoDeleted,
		DiffFields:    stats.DiffFields,
	}
	data, _ := json.Marshal(payload)

	event := &kafka.SessionEvent{
		EventType: string(EventTypeSessionFinished),
		SessionID: sessionID,
		Data:      data,
	}
	if err := e.producer.PublishSessionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit session.finished event")
	}
}

// EmitContactCreated emits a contact.created event
func (e *Emitter) EmitContactCreated(ctx context.Context, bookID, contactID string, fieldValues map[string]string, reason string) error {
	return e.emitContactChanged(ctx, EventTypeContactCreated, bookID, contactID, fieldValues, reason)
}

// EmitContactUpdated emits a contact.updated event
func (e *Emitter) EmitContactUpdated(ctx context.Context, bookID, contactID string, fieldValues map[string]string, reason string) error {
	return e.emitContactChanged(ctx, EventTypeContactUpdated, bookID, contactID, fieldValues, reason)
}

// EmitContactDeleted emits a contact.deleted event
func (e *Emitter) EmitContactDeleted(ctx context.Context, bookID, contactID string, reason string) error {
	return e.emitContactChanged(ctx, EventTypeContactDeleted, bookID, contactID, nil, reason)
}

func (e *Emitter) emitContactChanged(ctx context.Context, eventType EventType, bookID, contactID string, fieldValues map[string]string, reason string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emitContactChanged")
	defer span.End()

	payload := ContactChangedEvent{
		BaseEvent: NewBaseEvent(eventType),
		BookID:    bookID,
		ContactID: contactID,
		Fields:    fieldValues,
		Reason:    reason,
	}
	data, _ := json.Marshal(payload)

	event := &kafka.ContactEvent{
		EventType: string(eventType),
		BookID:    bookID,
		ContactID: contactID,
		Data:      data,
	}
	if err := e.producer.PublishContactEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("eventType", string(eventType)).Error("Failed to emit contact event")
		return err
	}
	return nil
}

func matchedOn(pair dedup.Pair) []string {
	var on []string
	if pair.Flags.Names {
		on = append(on, "names")
	}
	if pair.Flags.Emails {
		on = append(on, "emails")
	}
	if pair.Flags.Phones {
		on = append(on, "phones")
	}
	if pair.Flags.BothBlank {
		on = append(on, "both_blank")
	}
	return on
}
