package models

import (
	"encoding/json"
	"time"
)

// BookRow is the persisted form of an address book.
type BookRow struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ContactRow is the persisted form of a contact. The sparse field map is
// stored as a JSONB column; absent fields mean the field default.
type ContactRow struct {
	ID        string          `json:"id" db:"id"`
	BookID    string          `json:"book_id" db:"book_id"`
	Fields    json.RawMessage `json:"fields" db:"fields"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// MailingListRow is the persisted form of a mailing list.
type MailingListRow struct {
	ID           string          `json:"id" db:"id"`
	BookID       string          `json:"book_id" db:"book_id"`
	Name         string          `json:"name" db:"name"`
	MemberEmails json.RawMessage `json:"member_emails" db:"member_emails"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateBookRequest is the payload for creating an address book.
type CreateBookRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=1024"`
}

// CreateContactRequest is the payload for creating a contact.
type CreateContactRequest struct {
	Fields map[string]string `json:"fields" validate:"required"`
}

// UpdateContactRequest is the payload for updating contact fields.
type UpdateContactRequest struct {
	Fields map[string]string `json:"fields" validate:"required"`
}
