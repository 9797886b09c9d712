package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalize"
)

func newEnricher(t *testing.T) *Enricher {
	t.Helper()
	cfg, err := normalize.NewConfig("0", "00", "+49")
	require.NoError(t, err)
	return New(cfg, fields.IgnoredDefault)
}

func record(fieldValues map[string]string) *models.Record {
	return &models.Record{ID: "r1", Fields: fieldValues}
}

func TestPruned(t *testing.T) {
	e := newEnricher(t)

	t.Run("ignored fields prune to default", func(t *testing.T) {
		rec := record(map[string]string{"DbRowID": "42", "PhotoType": "file"})
		assert.Equal(t, "0", e.Pruned(rec, "DbRowID"))
		assert.Equal(t, "", e.Pruned(rec, "PhotoType"))
	})

	t.Run("name repeating an email prunes to empty", func(t *testing.T) {
		rec := record(map[string]string{
			fields.DisplayName:  "jane@example.com",
			fields.PrimaryEmail: "jane@example.com",
		})
		assert.Equal(t, "", e.Pruned(rec, fields.DisplayName))
	})

	t.Run("ordinary name survives", func(t *testing.T) {
		rec := record(map[string]string{
			fields.DisplayName:  "Jane Doe",
			fields.PrimaryEmail: "jane@example.com",
		})
		assert.Equal(t, "Jane Doe", e.Pruned(rec, fields.DisplayName))
	})
}

func TestTransformed(t *testing.T) {
	e := newEnricher(t)

	t.Run("display name last-comma-first reorders", func(t *testing.T) {
		rec := record(map[string]string{fields.DisplayName: "King, Martin L"})
		assert.Equal(t, "Martin L King", e.Transformed(rec, fields.DisplayName))
	})

	t.Run("first name holding last-comma-first splits", func(t *testing.T) {
		rec := record(map[string]string{fields.FirstName: "Smith, John"})
		assert.Equal(t, "John", e.Transformed(rec, fields.FirstName))
		assert.Equal(t, "Smith", e.Transformed(rec, fields.LastName))
	})

	t.Run("trailing comma swaps slots", func(t *testing.T) {
		rec := record(map[string]string{
			fields.FirstName: "Smith,",
			fields.LastName:  "John",
		})
		assert.Equal(t, "John", e.Transformed(rec, fields.FirstName))
		assert.Equal(t, "Smith", e.Transformed(rec, fields.LastName))
	})

	t.Run("particle moves to last name", func(t *testing.T) {
		rec := record(map[string]string{
			fields.FirstName: "Ludwig van",
			fields.LastName:  "Beethoven",
		})
		assert.Equal(t, "Ludwig", e.Transformed(rec, fields.FirstName))
		assert.Equal(t, "van Beethoven", e.Transformed(rec, fields.LastName))
	})
}

func TestEnrich(t *testing.T) {
	e := newEnricher(t)
	rec := record(map[string]string{
		fields.FirstName:    "John",
		fields.LastName:     "Smith",
		fields.PrimaryEmail: "john@googlemail.com",
		fields.SecondEmail:  "John.Smith@Example.com",
		fields.HomePhone:    "030 1234",
		fields.WorkPhone:    "0171 2345678",
	})
	mailLists := []models.MailingList{
		{Name: "friends", MemberEmails: []string{"john@googlemail.com", "x@y.z"}},
		{Name: "work", MemberEmails: []string{"other@example.com"}},
	}
	e.Enrich(rec, mailLists)

	require.True(t, rec.Enriched)
	assert.Equal(t, 6, rec.NonEmptyFields)
	// J + S + J.S@E + uppercase/punct in emails; phones contribute nothing.
	assert.Positive(t, rec.CharWeight)
	assert.ElementsMatch(t, []string{"friends"}, rec.MailListNames.Values())
	assert.ElementsMatch(t,
		[]string{"john@gmail.com", "john.smith@example.com"},
		rec.Emails.Values())
	assert.ElementsMatch(t, []string{"+49301234", "+491712345678"}, rec.PhoneNumbers.Values())
}

func TestEnrichInvalidatedOnEdit(t *testing.T) {
	e := newEnricher(t)
	rec := record(map[string]string{fields.FirstName: "John"})
	e.Enrich(rec, nil)
	require.True(t, rec.Enriched)

	rec.SetValue(fields.FirstName, "Johnny")
	assert.False(t, rec.Enriched)
}

func TestSimplify(t *testing.T) {
	e := newEnricher(t)

	t.Run("plain record", func(t *testing.T) {
		s := e.Simplify(record(map[string]string{
			fields.FirstName:      "John",
			fields.LastName:       "Smith",
			fields.DisplayName:    "John Smith",
			fields.CellularNumber: "0171 111",
			fields.PagerNumber:    "0171 222",
			fields.WorkPhone:      "0171 333",
		}))
		assert.Equal(t, "john", s.FirstName)
		assert.Equal(t, "smith", s.LastName)
		assert.Equal(t, "john smith", s.DisplayName)
		assert.Equal(t, "+49171111", s.Phone1)
		assert.Equal(t, "+49171222", s.Phone2)
		assert.Equal(t, "+49171333", s.Phone3)
	})

	t.Run("display name derived from first and last", func(t *testing.T) {
		s := e.Simplify(record(map[string]string{
			fields.FirstName: "John",
			fields.LastName:  "Smith",
		}))
		assert.Equal(t, "john smith", s.DisplayName)
	})

	t.Run("names derived from dotted email", func(t *testing.T) {
		s := e.Simplify(record(map[string]string{
			fields.PrimaryEmail: "Jane.Doe99@example.com",
		}))
		assert.Equal(t, "jane", s.FirstName)
		assert.Equal(t, "doe", s.LastName)
		assert.Equal(t, "jane doe", s.DisplayName)
	})

	t.Run("names derived from camel case email", func(t *testing.T) {
		s := e.Simplify(record(map[string]string{
			fields.SecondEmail: "JaneDoe@example.com",
		}))
		assert.Equal(t, "jane", s.FirstName)
		assert.Equal(t, "doe", s.LastName)
	})

	t.Run("no-reply addresses are not mined", func(t *testing.T) {
		s := e.Simplify(record(map[string]string{
			fields.PrimaryEmail: "no.reply@example.com",
		}))
		assert.Equal(t, "", s.FirstName)
		assert.Equal(t, "", s.LastName)
	})

	t.Run("names derived from two token display name", func(t *testing.T) {
		s := e.Simplify(record(map[string]string{
			fields.DisplayName: "Jane Doe",
		}))
		assert.Equal(t, "jane", s.FirstName)
		assert.Equal(t, "doe", s.LastName)
	})
}

func TestParseLastModified(t *testing.T) {
	assert.True(t, ParseLastModified("").IsZero())
	assert.True(t, ParseLastModified("0").IsZero())
	assert.True(t, ParseLastModified("not a date").IsZero())

	sec := ParseLastModified("1676462400")
	assert.Equal(t, int64(1676462400), sec.Unix())

	ms := ParseLastModified("1676462400000")
	assert.Equal(t, int64(1676462400), ms.Unix())

	rev := ParseLastModified("20230215T120000Z")
	assert.Equal(t, time.Date(2023, 2, 15, 12, 0, 0, 0, time.UTC), rev)

	day := ParseLastModified("20230215")
	assert.Equal(t, time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC), day)
}
