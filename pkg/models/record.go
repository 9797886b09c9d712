package models

import (
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/sets"
)

// Record is a single address book contact: an opaque identity plus a sparse
// map of raw field values. Derived values are attached by the enricher and
// cleared whenever raw fields change.
type Record struct {
	ID     string            `json:"id"`
	BookID string            `json:"bookId"`
	Fields map[string]string `json:"fields"`

	// Enrichment results. Valid only while Enriched is true.
	Enriched       bool     `json:"-"`
	NonEmptyFields int      `json:"-"`
	CharWeight     int      `json:"-"`
	MailListNames  sets.Set `json:"-"`
	Emails         sets.Set `json:"-"`
	PhoneNumbers   sets.Set `json:"-"`
}

// Value returns the raw value of a field, falling back to the field's default
// when the field is absent or (for selections) empty.
func (r *Record) Value(field string) string {
	def := fields.DefaultValue(field)
	if r == nil || r.Fields == nil {
		return def
	}
	value, ok := r.Fields[field]
	if !ok {
		return def
	}
	if fields.IsSelection(field) && value == "" {
		return def
	}
	return value
}

// SetValue updates a raw field and invalidates the enrichment results.
func (r *Record) SetValue(field, value string) {
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
	r.Fields[field] = value
	r.Enriched = false
	r.MailListNames = nil
	r.Emails = nil
	r.PhoneNumbers = nil
}

// AggregateSet returns the derived set behind a virtual set-valued field.
func (r *Record) AggregateSet(field string) sets.Set {
	switch field {
	case fields.VirtualMailLists:
		return r.MailListNames
	case fields.VirtualEmails:
		return r.Emails
	case fields.VirtualPhoneNumbers:
		return r.PhoneNumbers
	default:
		return nil
	}
}

// SimplifiedRecord is the small normalized projection used for candidate
// matching. Phone1..3 hold the cellular, pager and work numbers; home and fax
// numbers are excluded because they are commonly shared by several people.
type SimplifiedRecord struct {
	FirstName    string
	LastName     string
	DisplayName  string
	ScreenName   string
	PrimaryEmail string
	SecondEmail  string
	Phone1       string
	Phone2       string
	Phone3       string
}

// Book identifies an address book in the contact store.
type Book struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// MailingList is a named list of member email addresses within a book.
type MailingList struct {
	Name         string   `json:"name"`
	MemberEmails []string `json:"memberEmails"`
}
