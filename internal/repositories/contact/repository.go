package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ContactRepository defines the interface for contact persistence
type ContactRepository interface {
	Create(ctx context.Context, bookID string, fieldValues map[string]string) (*models.ContactRow, error)
	GetByID(ctx context.Context, bookID, id string) (*models.ContactRow, error)
	ListByBook(ctx context.Context, bookID string) ([]models.ContactRow, error)
	Update(ctx context.Context, bookID, id string, fieldValues map[string]string) error
	Delete(ctx context.Context, bookID, id string) error
	CountByBook(ctx context.Context, bookID string) (int, error)
}

// Repository implements ContactRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "contacts"

var columns = []string{"id", "book_id", "fields", "created_at", "updated_at", "deleted_at"}

// Create inserts a new contact with the given raw field values
func (r *Repository) Create(ctx context.Context, bookID string, fieldValues map[string]string) (*models.ContactRow, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Create")
	defer span.End()

	fieldsJSON, err := json.Marshal(fieldValues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contact fields: %w", err)
	}

	now := time.Now()
	id := uuid.New().String()

	sb := sqlbuilder.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "book_id", "fields", "created_at", "updated_at")
	sb.Values(id, bookID, fieldsJSON, now, now)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create contact")
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      id,
		"book_id": bookID,
	}).Info("created contact")

	return r.GetByID(ctx, bookID, id)
}

// GetByID gets a contact by ID within a book
func (r *Repository) GetByID(ctx context.Context, bookID, id string) (*models.ContactRow, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("book_id", bookID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var row models.ContactRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get contact by ID")
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &row, nil
}

// ListByBook lists all live contacts of a book
func (r *Repository) ListByBook(ctx context.Context, bookID string) ([]models.ContactRow, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.ListByBook")
	defer span.End()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("book_id", bookID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()

	var rows []models.ContactRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list contacts")
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return rows, nil
}

// Update replaces the raw field map of a contact
func (r *Repository) Update(ctx context.Context, bookID, id string, fieldValues map[string]string) error {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Update")
	defer span.End()

	fieldsJSON, err := json.Marshal(fieldValues)
	if err != nil {
		return fmt.Errorf("failed to marshal contact fields: %w", err)
	}

	sb := sqlbuilder.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("fields", fieldsJSON),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("book_id", bookID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update contact")
		return fmt.Errorf("failed to update contact: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      id,
		"book_id": bookID,
	}).Info("updated contact")

	return nil
}

// Delete soft deletes a contact
func (r *Repository) Delete(ctx context.Context, bookID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Delete")
	defer span.End()

	sb := sqlbuilder.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("book_id", bookID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete contact")
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      id,
		"book_id": bookID,
	}).Info("deleted contact")

	return nil
}

// CountByBook counts the live contacts of a book
func (r *Repository) CountByBook(ctx context.Context, bookID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.CountByBook")
	defer span.End()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(tableName)
	sb.Where(
		sb.Equal("book_id", bookID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count contacts")
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	return count, nil
}
