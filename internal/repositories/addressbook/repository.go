package addressbook

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// AddressBookRepository defines the interface for address book operations
type AddressBookRepository interface {
	Create(ctx context.Context, req models.CreateBookRequest) (*models.BookRow, error)
	GetByID(ctx context.Context, id string) (*models.BookRow, error)
	List(ctx context.Context) ([]models.BookRow, error)
	Delete(ctx context.Context, id string) error
}

// Repository implements AddressBookRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new address book repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "address_books"

var columns = []string{"id", "name", "description", "created_at", "updated_at", "deleted_at"}

// Create creates a new address book
func (r *Repository) Create(ctx context.Context, req models.CreateBookRequest) (*models.BookRow, error) {
	ctx, span := tracing.StartSpan(ctx, "AddressBookRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	sb := sqlbuilder.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "description", "created_at", "updated_at")
	sb.Values(id, req.Name, req.Description, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create address book")
		return nil, fmt.Errorf("failed to create address book: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   id,
		"name": req.Name,
	}).Info("created address book")

	return r.GetByID(ctx, id)
}

// GetByID gets an address book by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.BookRow, error) {
	ctx, span := tracing.StartSpan(ctx, "AddressBookRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var book models.BookRow
	err := r.db.GetContext(ctx, &book, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get address book by ID")
		return nil, fmt.Errorf("failed to get address book: %w", err)
	}

	return &book, nil
}

// List lists all live address books
func (r *Repository) List(ctx context.Context) ([]models.BookRow, error) {
	ctx, span := tracing.StartSpan(ctx, "AddressBookRepository.List")
	defer span.End()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.IsNull("deleted_at"))
	sb.OrderBy("name ASC")

	query, args := sb.Build()

	var books []models.BookRow
	err := r.db.SelectContext(ctx, &books, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list address books")
		return nil, fmt.Errorf("failed to list address books: %w", err)
	}

	return books, nil
}

// Delete soft deletes an address book
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "AddressBookRepository.Delete")
	defer span.End()

	sb := sqlbuilder.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete address book")
		return fmt.Errorf("failed to delete address book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted address book")

	return nil
}
