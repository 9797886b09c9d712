package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/enrich"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalize"
)

func newComparator(t *testing.T) (*Comparator, *enrich.Enricher) {
	t.Helper()
	cfg, err := normalize.NewConfig("", "", "")
	require.NoError(t, err)
	e := enrich.New(cfg, fields.IgnoredDefault)
	return New(e), e
}

func enriched(e *enrich.Enricher, fieldValues map[string]string) *models.Record {
	rec := &models.Record{Fields: fieldValues}
	e.Enrich(rec, nil)
	return rec
}

func TestCompareEquivalent(t *testing.T) {
	c, e := newComparator(t)
	a := enriched(e, map[string]string{fields.FirstName: "John", fields.LastName: "Smith"})
	b := enriched(e, map[string]string{fields.FirstName: "john", fields.LastName: "smith"})

	res := c.Compare(a, b)
	assert.Equal(t, OrderingEquivalent, res.Ordering)
	assert.Empty(t, res.DiffFields)
	// Char weight favors the uppercase spelling.
	assert.Positive(t, res.Preference)
}

func TestCompareSecondLess(t *testing.T) {
	c, e := newComparator(t)
	a := enriched(e, map[string]string{
		fields.FirstName: "John",
		fields.LastName:  "Smith",
		"Company":        "Acme",
	})
	b := enriched(e, map[string]string{
		fields.FirstName: "John",
		fields.LastName:  "Smith",
	})

	res := c.Compare(a, b)
	assert.Equal(t, OrderingSecondLess, res.Ordering)
	assert.Equal(t, 1, res.Preference)
	assert.Equal(t, []string{"Company"}, res.DiffFields)
}

func TestCompareTextSubstring(t *testing.T) {
	c, e := newComparator(t)
	a := enriched(e, map[string]string{fields.DisplayName: "Rob"})
	b := enriched(e, map[string]string{fields.DisplayName: "Rob Smith"})

	res := c.Compare(a, b)
	assert.Equal(t, OrderingFirstLess, res.Ordering)
	assert.Equal(t, -1, res.Preference)
	assert.Equal(t, []string{fields.DisplayName}, res.DiffFields)
}

func TestCompareEmailSubset(t *testing.T) {
	c, e := newComparator(t)
	a := enriched(e, map[string]string{fields.PrimaryEmail: "x@gmail.com"})
	b := enriched(e, map[string]string{
		fields.PrimaryEmail: "x@gmail.com",
		fields.SecondEmail:  "y@gmail.com",
	})

	res := c.Compare(a, b)
	assert.Equal(t, OrderingFirstLess, res.Ordering)
	assert.Contains(t, res.DiffFields, "{PrimaryEmail,SecondEmail}")
}

func TestCompareIncomparable(t *testing.T) {
	c, e := newComparator(t)
	a := enriched(e, map[string]string{
		fields.FirstName: "John",
		"Company":        "Acme",
	})
	b := enriched(e, map[string]string{
		fields.FirstName: "John",
		"JobTitle":       "Engineer",
	})

	res := c.Compare(a, b)
	assert.Equal(t, OrderingIncomparable, res.Ordering)
	assert.ElementsMatch(t, []string{"Company", "JobTitle"}, res.DiffFields)
}

func TestCompareAntisymmetry(t *testing.T) {
	c, e := newComparator(t)
	a := enriched(e, map[string]string{
		fields.FirstName: "John",
		fields.LastName:  "Smith",
		"Notes":          "met at the conference",
	})
	b := enriched(e, map[string]string{
		fields.FirstName: "John",
		fields.LastName:  "Smith",
	})

	ab := c.Compare(a, b)
	ba := c.Compare(b, a)
	assert.Equal(t, ab.Ordering, -ba.Ordering)
	assert.Equal(t, ab.Preference, -ba.Preference)
}

func TestCompareTieBreakCascade(t *testing.T) {
	c, e := newComparator(t)

	t.Run("popularity decides", func(t *testing.T) {
		a := enriched(e, map[string]string{
			fields.FirstName:       "John",
			fields.PopularityIndex: "5",
		})
		b := enriched(e, map[string]string{
			fields.FirstName:       "John",
			fields.PopularityIndex: "0",
		})
		res := c.Compare(a, b)
		assert.Equal(t, OrderingEquivalent, res.Ordering)
		assert.Positive(t, res.Preference)
	})

	t.Run("last modified decides only when both known", func(t *testing.T) {
		a := enriched(e, map[string]string{
			fields.FirstName:        "John",
			fields.LastModifiedDate: "1676462400",
		})
		b := enriched(e, map[string]string{
			fields.FirstName:        "John",
			fields.LastModifiedDate: "1676462500",
		})
		assert.Negative(t, c.Compare(a, b).Preference)

		unknown := enriched(e, map[string]string{fields.FirstName: "John"})
		assert.Equal(t, 0, c.Compare(a, unknown).Preference)
	})
}

func TestCompareIgnoredFieldsExcluded(t *testing.T) {
	c, e := newComparator(t)
	a := enriched(e, map[string]string{fields.FirstName: "John", "DbRowID": "1"})
	b := enriched(e, map[string]string{fields.FirstName: "John", "DbRowID": "2"})

	res := c.Compare(a, b)
	assert.Equal(t, OrderingEquivalent, res.Ordering)
	assert.Empty(t, res.DiffFields)
}
