package mailinglist

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

// MailingListRepository defines the interface for mailing list persistence
type MailingListRepository interface {
	Create(ctx context.Context, bookID, name string, memberEmails []string) (*models.MailingListRow, error)
	ListByBook(ctx context.Context, bookID string) ([]models.MailingListRow, error)
	UpdateMembers(ctx context.Context, bookID, id string, memberEmails []string) error
	Delete(ctx context.Context, bookID, id string) error
}

// Repository implements MailingListRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new mailing list repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "mailing_lists"

var columns = []string{"id", "book_id", "name", "member_emails", "created_at", "updated_at", "deleted_at"}

// Create creates a new mailing list
func (r *Repository) Create(ctx context.Context, bookID, name string, memberEmails []string) (*models.MailingListRow, error) {
	ctx, span := tracing.StartSpan(ctx, "MailingListRepository.Create")
	defer span.End()

	membersJSON, err := json.Marshal(memberEmails)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal member emails: %w", err)
	}

	now := time.Now()
	id := uuid.New().String()

	sb := sqlbuilder.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "book_id", "name", "member_emails", "created_at", "updated_at")
	sb.Values(id, bookID, name, membersJSON, now, now)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create mailing list")
		return nil, fmt.Errorf("failed to create mailing list: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      id,
		"book_id": bookID,
		"name":    name,
	}).Info("created mailing list")

	return r.getByID(ctx, bookID, id)
}

func (r *Repository) getByID(ctx context.Context, bookID, id string) (*models.MailingListRow, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("book_id", bookID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var row models.MailingListRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get mailing list: %w", err)
	}

	return &row, nil
}

// ListByBook lists all live mailing lists of a book
func (r *Repository) ListByBook(ctx context.Context, bookID string) ([]models.MailingListRow, error) {
	ctx, span := tracing.StartSpan(ctx, "MailingListRepository.ListByBook")
	defer span.End()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("book_id", bookID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("name ASC")

	query, args := sb.Build()

	var rows []models.MailingListRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list mailing lists")
		return nil, fmt.Errorf("failed to list mailing lists: %w", err)
	}

	return rows, nil
}

// UpdateMembers replaces the member email list
func (r *Repository) UpdateMembers(ctx context.Context, bookID, id string, memberEmails []string) error {
	ctx, span := tracing.StartSpan(ctx, "MailingListRepository.UpdateMembers")
	defer span.End()

	membersJSON, err := json.Marshal(memberEmails)
	if err != nil {
		return fmt.Errorf("failed to marshal member emails: %w", err)
	}

	sb := sqlbuilder.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("member_emails", membersJSON),
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to update mailing list members")
		return fmt.Errorf("failed to update mailing list members: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete soft deletes a mailing list
func (r *Repository) Delete(ctx context.Context, bookID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "MailingListRepository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete mailing list")
		return fmt.Errorf("failed to delete mailing list: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
