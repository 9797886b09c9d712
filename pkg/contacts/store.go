// Package contacts defines the contact store contract consumed by the
// duplicate detection engine.
package contacts

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Store is the external address book collaborator. Implementations persist
// books, records and mailing lists; the engine only reads lists at session
// start and issues individual update/delete calls as decisions are made.
type Store interface {
	// ListBooks returns all available address books.
	ListBooks(ctx context.Context) ([]models.Book, error)
	// ListRecords returns a book's records together with its mailing lists.
	ListRecords(ctx context.Context, bookID string) ([]*models.Record, []models.MailingList, error)
	// UpdateRecord persists in-memory field edits. It never partially
	// applies; on error the stored record is unchanged.
	UpdateRecord(ctx context.Context, bookID string, rec *models.Record) error
	// DeleteRecord removes a record. Callers never retry an already-deleted
	// record.
	DeleteRecord(ctx context.Context, bookID string, rec *models.Record) error
	// CreateRecord stores a new record and returns its id.
	CreateRecord(ctx context.Context, bookID string, fieldValues map[string]string) (string, error)
}
