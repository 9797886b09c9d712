// Package ingest applies inbound contact mutations from the import topic to
// the contact store.
package ingest

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/pkg/contacts"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Processor handles import messages. Failures propagate to the consumer so
// the message is retried instead of committed.
type Processor struct {
	logger  ectologger.Logger
	store   contacts.Store
	emitter *events.Emitter
}

// NewProcessor creates a new import processor
func NewProcessor(logger ectologger.Logger, store contacts.Store, emitter *events.Emitter) *Processor {
	return &Processor{
		logger:  logger,
		store:   store,
		emitter: emitter,
	}
}

// Handle processes one import message. Wire it to the consumer as its
// MessageHandler.
func (p *Processor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "ingest.Processor.Handle")
	defer span.End()

	if msg.Import == nil {
		return errors.New("message has no parsed import payload")
	}
	bookID := msg.GetBookID()
	if bookID == "" {
		return errors.New("import message has no book id")
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"action":      msg.Import.Action,
		"bookId":      bookID,
		"contactId":   msg.GetContactID(),
		"integration": msg.Import.Source.Integration,
	})

	switch msg.Import.Action {
	case "create":
		id, err := p.store.CreateRecord(ctx, bookID, msg.Import.Fields)
		if err != nil {
			log.WithError(err).Error("Failed to create contact")
			return err
		}
		log.WithField("contactId", id).Info("Contact created from import")
		if p.emitter != nil {
			if err := p.emitter.EmitContactCreated(ctx, bookID, id, msg.Import.Fields, "ingest"); err != nil {
				log.WithError(err).Warn("Contact created but event emission failed")
			}
		}
		return nil

	case "update":
		rec := &models.Record{ID: msg.GetContactID(), BookID: bookID, Fields: msg.Import.Fields}
		if err := p.store.UpdateRecord(ctx, bookID, rec); err != nil {
			log.WithError(err).Error("Failed to update contact")
			return err
		}
		log.Info("Contact updated from import")
		if p.emitter != nil {
			if err := p.emitter.EmitContactUpdated(ctx, bookID, rec.ID, msg.Import.Fields, "ingest"); err != nil {
				log.WithError(err).Warn("Contact updated but event emission failed")
			}
		}
		return nil

	case "delete":
		rec := &models.Record{ID: msg.GetContactID(), BookID: bookID}
		if err := p.store.DeleteRecord(ctx, bookID, rec); err != nil {
			log.WithError(err).Error("Failed to delete contact")
			return err
		}
		log.Info("Contact deleted from import")
		if p.emitter != nil {
			if err := p.emitter.EmitContactDeleted(ctx, bookID, rec.ID, "ingest"); err != nil {
				log.WithError(err).Warn("Contact deleted but event emission failed")
			}
		}
		return nil

	default:
		// Unknown actions are dropped, not retried.
		log.Warn("Ignoring import message with unknown action")
		return nil
	}
}
