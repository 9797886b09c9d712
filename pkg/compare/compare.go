// Package compare decides which of two candidate records carries less
// information and which one is preferred for deletion.
package compare

import (
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/enrich"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/sets"
)

// Ordering classifies the information relationship between two records.
type Ordering int

const (
	// OrderingFirstLess means the first record carries strictly less
	// information.
	OrderingFirstLess Ordering = -1
	// OrderingEquivalent means no considered field differs.
	OrderingEquivalent Ordering = 0
	// OrderingSecondLess means the second record carries strictly less
	// information.
	OrderingSecondLess Ordering = 1
	// OrderingIncomparable means both records carry information the other
	// lacks. Such pairs always go to manual review.
	OrderingIncomparable Ordering = -2
)

// Result is the outcome of comparing a candidate pair.
//
// Preference < 0 prefers deleting the first record, > 0 the second. For an
// incomparable pair the preference is advisory only and never acted on
// automatically.
type Result struct {
	Ordering   Ordering `json:"ordering"`
	Preference int      `json:"preference"`
	// DiffFields names the considered fields whose values differ, using
	// aggregate labels for the virtual sets.
	DiffFields []string `json:"diffFields"`
}

// Comparator compares enriched records using the normalized field views of an
// Enricher.
type Comparator struct {
	enricher *enrich.Enricher
}

// New creates a Comparator sharing the session's enricher.
func New(enricher *enrich.Enricher) *Comparator {
	return &Comparator{enricher: enricher}
}

// diffLabel maps a virtual set field to the label reported for it.
func diffLabel(field string) string {
	switch field {
	case fields.VirtualMailLists:
		return "(MailingListMembership)"
	case fields.VirtualEmails:
		return "{PrimaryEmail,SecondEmail}"
	case fields.VirtualPhoneNumbers:
		return "{CellularNumber,HomePhone,WorkPhone,FaxNumber,PagerNumber}"
	default:
		return field
	}
}

// Compare walks every considered field and narrows the "less complete" flag
// of each side: a side stays less complete only while each of its differing
// values is a substring, subset or default of the other's. Email and phone
// fields are compared only through their aggregate sets; numeric and meta
// fields only feed the tie-break.
func (c *Comparator) Compare(a, b *models.Record) Result {
	firstLess, secondLess := true, true
	var diffFields []string
	seen := map[string]struct{}{}

	for _, field := range c.enricher.Considered() {
		if fields.IsNumeric(field) || fields.IsMeta(field) ||
			fields.IsEmail(field) || fields.IsPhone(field) {
			continue
		}
		if fields.IsSet(field) {
			setA, setB := a.AggregateSet(field), b.AggregateSet(field)
			if sets.Equal(setA, setB) {
				continue
			}
			diffFields = appendDiff(diffFields, seen, diffLabel(field))
			if !firstLess && !secondLess {
				continue
			}
			if !sets.IsSupersetOf(setB, setA) {
				firstLess = false
			}
			if !sets.IsSupersetOf(setA, setB) {
				secondLess = false
			}
			continue
		}

		valueA := c.enricher.Abstracted(a, field)
		valueB := c.enricher.Abstracted(b, field)
		if valueA == valueB {
			continue
		}
		diffFields = appendDiff(diffFields, seen, diffLabel(field))
		if !firstLess && !secondLess {
			continue
		}
		if fields.IsText(field) {
			if !strings.Contains(valueB, valueA) {
				firstLess = false
			}
			if !strings.Contains(valueA, valueB) {
				secondLess = false
			}
		} else {
			def := fields.DefaultValue(field)
			if valueA != def {
				firstLess = false
			}
			if valueB != def {
				secondLess = false
			}
		}
	}

	result := Result{DiffFields: diffFields}
	if firstLess != secondLess {
		if firstLess {
			result.Ordering = OrderingFirstLess
			result.Preference = -1
		} else {
			result.Ordering = OrderingSecondLess
			result.Preference = 1
		}
		return result
	}
	if firstLess {
		result.Ordering = OrderingEquivalent
	} else {
		result.Ordering = OrderingIncomparable
	}
	result.Preference = c.tieBreak(a, b)
	return result
}

// tieBreak prefers keeping the record with more non-empty fields, then more
// character weight, then higher popularity, then (when both are known) the
// later modification timestamp.
func (c *Comparator) tieBreak(a, b *models.Record) int {
	if d := a.NonEmptyFields - b.NonEmptyFields; d != 0 {
		return d
	}
	if d := a.CharWeight - b.CharWeight; d != 0 {
		return d
	}
	if d := numericValue(a, fields.PopularityIndex) - numericValue(b, fields.PopularityIndex); d != 0 {
		return int(d)
	}
	dateA := enrich.ParseLastModified(a.Value(fields.LastModifiedDate))
	dateB := enrich.ParseLastModified(b.Value(fields.LastModifiedDate))
	if !dateA.IsZero() && !dateB.IsZero() {
		switch {
		case dateA.After(dateB):
			return 1
		case dateB.After(dateA):
			return -1
		}
	}
	return 0
}

func numericValue(rec *models.Record, field string) int64 {
	n, err := strconv.ParseInt(rec.Value(field), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func appendDiff(diff []string, seen map[string]struct{}, label string) []string {
	if _, ok := seen[label]; ok {
		return diff
	}
	seen[label] = struct{}{}
	return append(diff, label)
}
