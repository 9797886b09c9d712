// Package enrich derives the comparison values of a contact record: the
// pruned/transformed/abstracted view of each field, the aggregate email and
// phone sets, mailing list membership and the tie-break counters.
package enrich

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalize"
	"github.com/Ramsey-B/fern/pkg/sets"
)

// Enricher computes normalized field views for a fixed normalization config
// and ignore list.
type Enricher struct {
	cfg        normalize.Config
	ignored    map[string]struct{}
	considered []string
}

// New creates an Enricher. Fields in ignoredFields prune to their default
// value and are excluded from the considered set.
func New(cfg normalize.Config, ignoredFields []string) *Enricher {
	ignored := make(map[string]struct{}, len(ignoredFields))
	for _, f := range ignoredFields {
		ignored[f] = struct{}{}
	}
	return &Enricher{
		cfg:        cfg,
		ignored:    ignored,
		considered: fields.Considered(ignoredFields),
	}
}

// Considered returns the fields that participate in enrichment and comparison.
func (e *Enricher) Considered() []string {
	return e.considered
}

// Pruned returns the pruned value of a field. Ignored fields prune to their
// default unconditionally, and a name that merely repeats one of the record's
// email addresses prunes to empty (some clients insert the address as a stand-in
// name).
func (e *Enricher) Pruned(rec *models.Record, field string) string {
	def := fields.DefaultValue(field)
	if _, ok := e.ignored[field]; ok {
		return def
	}
	value := normalize.Prune(rec.Value(field), field)
	if fields.IsName(field) {
		if value == e.Pruned(rec, fields.PrimaryEmail) || value == e.Pruned(rec, fields.SecondEmail) {
			return def
		}
	}
	return value
}

var lastFirstRe = regexp.MustCompile(`^([^,]+),\s+(.+)$`)

// Transformed returns the pruned value with name-order rewrites applied:
// "Last, First" reordering, middle initials moved from the last name to the
// first and particles (von, van, ...) moved from the first name to the last.
func (e *Enricher) Transformed(rec *models.Record, field string) string {
	value := e.Pruned(rec, field)
	if !fields.IsName(field) {
		return value
	}
	if field == fields.DisplayName {
		if m := lastFirstRe.FindStringSubmatch(value); m != nil {
			fn, ln := normalize.TransformName(m[2], m[1])
			value = fn + " " + ln
		}
		return value
	}
	fn := e.Pruned(rec, fields.FirstName)
	ln := e.Pruned(rec, fields.LastName)
	if trimmed := strings.TrimRight(fn, " \t"); strings.HasSuffix(trimmed, ",") {
		// "Last," spilled into the first-name slot with nothing after the comma.
		ln = strings.TrimSuffix(trimmed, ",")
		fn = rec.Value(fields.LastName)
	} else if m := lastFirstRe.FindStringSubmatch(fn); m != nil {
		fn = m[2]
		if ln != "" {
			fn += " " + ln
		}
		ln = m[1]
	}
	fn, ln = normalize.TransformName(fn, ln)
	if field == fields.FirstName {
		return fn
	}
	return ln
}

// Abstracted returns the fully normalized comparison value of a field.
func (e *Enricher) Abstracted(rec *models.Record, field string) string {
	return normalize.Abstract(e.Transformed(rec, field), field, e.cfg)
}

// PropertySet collects the abstracted, non-default values of the given fields.
func (e *Enricher) PropertySet(rec *models.Record, properties ...string) sets.Set {
	result := sets.New()
	for _, property := range properties {
		value := e.Abstracted(rec, property)
		if value != fields.DefaultValue(property) {
			result.Add(value)
		}
	}
	return result
}

// Enrich attaches the derived comparison fields to a record: the non-empty
// field count, the character weight, mailing list membership of the primary
// email and the aggregate email/phone sets.
func (e *Enricher) Enrich(rec *models.Record, mailLists []models.MailingList) {
	nonEmpty := 0
	charWeight := 0
	for _, field := range e.considered {
		if fields.IsNumeric(field) {
			continue
		}
		value := rec.Value(field)
		if value != fields.DefaultValue(field) {
			nonEmpty++
		}
		if fields.IsText(field) || fields.IsEmail(field) || fields.IsPhone(field) {
			charWeight += fields.CharWeight(value, field)
		}
	}
	rec.NonEmptyFields = nonEmpty
	rec.CharWeight = charWeight

	mailListNames := sets.New()
	if email := rec.Value(fields.PrimaryEmail); email != "" {
		for _, list := range mailLists {
			for _, member := range list.MemberEmails {
				if member == email {
					mailListNames.Add(list.Name)
					break
				}
			}
		}
	}
	rec.MailListNames = mailListNames
	rec.Emails = e.PropertySet(rec, fields.PrimaryEmail, fields.SecondEmail)
	rec.PhoneNumbers = e.PropertySet(rec, fields.HomePhone, fields.WorkPhone,
		fields.FaxNumber, fields.PagerNumber, fields.CellularNumber)
	rec.Enriched = true
}

// Simplify builds the small normalized projection used for candidate
// matching, completing missing name parts from the display name or an email
// local part where possible.
func (e *Enricher) Simplify(rec *models.Record) models.SimplifiedRecord {
	fn := e.Abstracted(rec, fields.FirstName)
	ln := e.Abstracted(rec, fields.LastName)
	dn := e.Abstracted(rec, fields.DisplayName)
	fn, ln, dn = e.completeNames(rec, fn, ln, dn)
	return models.SimplifiedRecord{
		FirstName:    fn,
		LastName:     ln,
		DisplayName:  dn,
		ScreenName:   e.Abstracted(rec, fields.ScreenName),
		PrimaryEmail: e.Abstracted(rec, fields.PrimaryEmail),
		SecondEmail:  e.Abstracted(rec, fields.SecondEmail),
		Phone1:       e.Abstracted(rec, fields.CellularNumber),
		Phone2:       e.Abstracted(rec, fields.PagerNumber),
		Phone3:       e.Abstracted(rec, fields.WorkPhone),
	}
}

var (
	twoTokenNameRe   = regexp.MustCompile(`^\s*([A-Za-z0-9_\x{80}-\x{10FFFF}]+)\s+([A-Za-z0-9_\x{80}-\x{10FFFF}]+)\s*$`)
	emailSeparatedRe = regexp.MustCompile(`^\s*([A-Za-z0-9\x{80}-\x{10FFFF}]+)[.\-_]+([A-Za-z0-9\x{80}-\x{10FFFF}]+)@`)
	emailCamelRe     = regexp.MustCompile(`^\s*([A-Z][a-z0-9_\x{80}-\x{10FFFF}]*)([A-Z][a-z0-9_\x{80}-\x{10FFFF}]*)@`)
	digitsRe         = regexp.MustCompile(`[0-9]`)
)

// completeNames fills in missing first/last/display names from each other or
// from a "first.last@" / "FirstLast@" shaped email address. Addresses whose
// local part starts with "no" (no-reply and friends) are not mined for names.
func (e *Enricher) completeNames(rec *models.Record, fn, ln, dn string) (string, string, string) {
	if dn == "" && fn != "" && ln != "" {
		return fn, ln, fn + " " + ln
	}
	if fn != "" && ln != "" && dn != "" {
		return fn, ln, dn
	}
	m := twoTokenNameRe.FindStringSubmatch(dn)
	if m == nil {
		m = nameFromEmail(e.Pruned(rec, fields.PrimaryEmail))
	}
	if m == nil {
		m = nameFromEmail(e.Pruned(rec, fields.SecondEmail))
	}
	if m != nil {
		if fn == "" {
			fn = normalize.Abstract(digitsRe.ReplaceAllString(m[1], ""), fields.FirstName, e.cfg)
		}
		if ln == "" {
			ln = normalize.Abstract(digitsRe.ReplaceAllString(m[2], ""), fields.LastName, e.cfg)
		}
		if dn == "" {
			dn = fn + " " + ln
		}
	}
	return fn, ln, dn
}

func nameFromEmail(email string) []string {
	if m := emailSeparatedRe.FindStringSubmatch(email); m != nil && m[1] != "no" {
		return m
	}
	return emailCamelRe.FindStringSubmatch(email)
}

var revCompactRe = regexp.MustCompile(`^\d{8}(T\d{6}Z?)?$`)

// ParseLastModified interprets a LastModifiedDate value as a timestamp.
// Accepts unix seconds, unix milliseconds and the vCard REV compact forms
// ("20230215T120000Z", "20230215"). Returns the zero time when the value is
// empty, "0" or unparseable.
func ParseLastModified(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return time.Time{}
	}
	if num, err := strconv.ParseInt(value, 10, 64); err == nil {
		if num < 1e12 {
			return time.Unix(num, 0)
		}
		return time.UnixMilli(num)
	}
	if revCompactRe.MatchString(value) {
		for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
