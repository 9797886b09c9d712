package contacts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/addressbook"
	"github.com/Ramsey-B/fern/internal/repositories/contact"
	"github.com/Ramsey-B/fern/internal/repositories/mailinglist"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// PostgresStore implements Store on top of the Postgres repositories.
type PostgresStore struct {
	books    addressbook.AddressBookRepository
	contacts contact.ContactRepository
	lists    mailinglist.MailingListRepository
	logger   ectologger.Logger
}

// NewPostgresStore creates a store over the given repositories.
func NewPostgresStore(
	books addressbook.AddressBookRepository,
	contacts contact.ContactRepository,
	lists mailinglist.MailingListRepository,
	logger ectologger.Logger,
) *PostgresStore {
	return &PostgresStore{
		books:    books,
		contacts: contacts,
		lists:    lists,
		logger:   logger,
	}
}

// ListBooks returns all live address books.
func (s *PostgresStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.PostgresStore.ListBooks")
	defer span.End()

	rows, err := s.books.List(ctx)
	if err != nil {
		return nil, err
	}
	books := make([]models.Book, len(rows))
	for i, row := range rows {
		books[i] = models.Book{ID: row.ID, Name: row.Name}
	}
	return books, nil
}

// ListRecords returns a book's records and mailing lists.
func (s *PostgresStore) ListRecords(ctx context.Context, bookID string) ([]*models.Record, []models.MailingList, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.PostgresStore.ListRecords")
	defer span.End()

	rows, err := s.contacts.ListByBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	records := make([]*models.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("contactId", row.ID).Error("skipping contact with malformed fields")
			continue
		}
		records = append(records, rec)
	}

	listRows, err := s.lists.ListByBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	lists := make([]models.MailingList, 0, len(listRows))
	for _, row := range listRows {
		var members []string
		if len(row.MemberEmails) > 0 {
			if err := json.Unmarshal(row.MemberEmails, &members); err != nil {
				s.logger.WithContext(ctx).WithError(err).WithField("listId", row.ID).Error("skipping mailing list with malformed members")
				continue
			}
		}
		lists = append(lists, models.MailingList{Name: row.Name, MemberEmails: members})
	}

	return records, lists, nil
}

// UpdateRecord persists the record's current raw field map.
func (s *PostgresStore) UpdateRecord(ctx context.Context, bookID string, rec *models.Record) error {
	ctx, span := tracing.StartSpan(ctx, "contacts.PostgresStore.UpdateRecord")
	defer span.End()

	return s.contacts.Update(ctx, bookID, rec.ID, rec.Fields)
}

// DeleteRecord removes the record.
func (s *PostgresStore) DeleteRecord(ctx context.Context, bookID string, rec *models.Record) error {
	ctx, span := tracing.StartSpan(ctx, "contacts.PostgresStore.DeleteRecord")
	defer span.End()

	return s.contacts.Delete(ctx, bookID, rec.ID)
}

// CreateRecord stores a new record and returns its id.
func (s *PostgresStore) CreateRecord(ctx context.Context, bookID string, fieldValues map[string]string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.PostgresStore.CreateRecord")
	defer span.End()

	row, err := s.contacts.Create(ctx, bookID, fieldValues)
	if err != nil {
		return "", err
	}
	return row.ID, nil
}

func recordFromRow(row models.ContactRow) (*models.Record, error) {
	fieldValues := map[string]string{}
	if len(row.Fields) > 0 {
		if err := json.Unmarshal(row.Fields, &fieldValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contact fields: %w", err)
		}
	}
	return &models.Record{
		ID:     row.ID,
		BookID: row.BookID,
		Fields: fieldValues,
	}, nil
}
