// Package normalize provides the field normalization pipeline used for
// duplicate detection: pruning (whitespace/junk removal), structural name
// transforms, and abstraction (case and accent folding, phone prefix
// rewriting). All functions are pure and never fail; malformed input degrades
// to the field's default value.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Ramsey-B/fern/pkg/fields"
)

// ErrInvalidConfig is wrapped by configuration validation failures.
var ErrInvalidConfig = errors.New("invalid normalization config")

var (
	natTrunkPrefixPattern    = regexp.MustCompile(`^[0-9]{1,2}$`)
	intCallPrefixPattern     = regexp.MustCompile(`^[0-9]{2,4}$`)
	countryCallingCodePattern = regexp.MustCompile(`^(\+|[0-9])[0-9]{1,6}$`)
)

// Config controls phone number prefix rewriting during abstraction. The zero
// value disables all rewriting.
type Config struct {
	NatTrunkPrefix     string
	IntCallPrefix      string
	CountryCallingCode string

	natTrunkRe *regexp.Regexp
	intCallRe  *regexp.Regexp
}

// NewConfig validates the prefix settings and compiles the rewrite patterns.
// Validation is eager so a malformed prefix is rejected before any scanning
// begins.
func NewConfig(natTrunkPrefix, intCallPrefix, countryCallingCode string) (Config, error) {
	if natTrunkPrefix != "" && !natTrunkPrefixPattern.MatchString(natTrunkPrefix) {
		return Config{}, fmt.Errorf("%w: national trunk prefix %q must be one or two digits", ErrInvalidConfig, natTrunkPrefix)
	}
	if intCallPrefix != "" && !intCallPrefixPattern.MatchString(intCallPrefix) {
		return Config{}, fmt.Errorf("%w: international call prefix %q must be two to four digits", ErrInvalidConfig, intCallPrefix)
	}
	if countryCallingCode != "" && !countryCallingCodePattern.MatchString(countryCallingCode) {
		return Config{}, fmt.Errorf("%w: country calling code %q must be a leading '+' or digit followed by one to six digits", ErrInvalidConfig, countryCallingCode)
	}

	cfg := Config{
		NatTrunkPrefix:     natTrunkPrefix,
		IntCallPrefix:      intCallPrefix,
		CountryCallingCode: countryCallingCode,
	}
	if natTrunkPrefix != "" {
		cfg.natTrunkRe = regexp.MustCompile("^" + regexp.QuoteMeta(natTrunkPrefix) + "[1-9]")
	}
	if intCallPrefix != "" {
		cfg.intCallRe = regexp.MustCompile("^" + regexp.QuoteMeta(intCallPrefix) + "[1-9]")
	}
	return cfg, nil
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	nonPhoneRe   = regexp.MustCompile(`[^+0-9]`)
	googlemailRe = regexp.MustCompile(`(?i)@googlemail\.com$`)
	aolEmailRe   = regexp.MustCompile(`(?i)^([^@]*)(@aol\..*)$`)
)

// Prune removes whitespace noise from text fields and everything but digits
// from phone fields (keeping at most one '+', moved to the front). Email
// fields get the googlemail.com → gmail.com alias folded; that provider
// treats both domains as the same mailbox.
func Prune(value, field string) string {
	if fields.IsText(field) {
		value = strings.TrimSpace(multiSpaceRe.ReplaceAllString(value, " "))
	}
	if fields.IsPhone(field) {
		value = nonPhoneRe.ReplaceAllString(value, "")
		if i := strings.IndexByte(value, '+'); i >= 0 {
			value = "+" + strings.ReplaceAll(value, "+", "")
		}
	}
	if fields.IsEmail(field) {
		value = googlemailRe.ReplaceAllString(value, "@gmail.com")
	}
	return value
}

var (
	middleInitialRe = regexp.MustCompile(`^\s*([A-Za-z])\s+(.*)$`)
	namePrefixRe    = regexp.MustCompile(`^(.+)\s(von|van|und|and|für|for|zum|zur|der|de|geb|ben)\s*$`)
)

// TransformName moves single-letter middle initials from the front of the
// last name onto the first name, and trailing name particles (von, van, der,
// ...) from the first name onto the last name. Returns the adjusted
// (firstName, lastName) pair.
func TransformName(firstName, lastName string) (string, string) {
	var middles strings.Builder
	for {
		m := middleInitialRe.FindStringSubmatch(lastName)
		if m == nil {
			break
		}
		middles.WriteString(" ")
		middles.WriteString(m[1])
		lastName = m[2]
	}
	var prefixes strings.Builder
	for {
		m := namePrefixRe.FindStringSubmatch(firstName)
		if m == nil {
			break
		}
		firstName = m[1]
		prefixes.WriteString(m[2])
		prefixes.WriteString(" ")
	}
	firstName = strings.TrimSpace(firstName) + middles.String()
	lastName = prefixes.String() + strings.TrimSpace(lastName)
	return firstName, lastName
}

// Abstract case-folds and simplifies a value for comparison. Text fields get
// German-style digraphs expanded (ä→ae, ß→ss, ...) and remaining diacritics
// and punctuation stripped; phone fields get the configured national trunk
// prefix rewritten to the country calling code and the international call
// prefix rewritten to a leading '+'. AOL addresses keep the local part's case
// because the provider treats it as significant.
func Abstract(value, field string, cfg Config) string {
	if field == fields.PhotoURI {
		return value
	}
	if m := aolEmailRe.FindStringSubmatch(value); fields.IsEmail(field) && m != nil {
		value = m[1] + strings.ToLower(m[2])
	} else {
		value = strings.ToLower(value)
	}
	if fields.IsText(field) {
		value = foldDigraphs(value)
		value = Simplify(value)
	}
	if fields.IsPhone(field) {
		if cfg.NatTrunkPrefix != "" && cfg.CountryCallingCode != "" && cfg.natTrunkRe != nil && cfg.natTrunkRe.MatchString(value) {
			value = cfg.CountryCallingCode + value[len(cfg.NatTrunkPrefix):]
		}
		if cfg.IntCallPrefix != "" && cfg.intCallRe != nil && cfg.intCallRe.MatchString(value) {
			value = "+" + value[len(cfg.IntCallPrefix):]
		}
	}
	return value
}

var punctuationRe = regexp.MustCompile(`["'\-_:,;.!?&+]+`)

// accentFold maps accented Latin letters to their base letter. Digraph
// expansions (ä→ae etc.) are handled separately before this table applies.
var accentFold = map[rune]rune{}

func init() {
	groups := map[rune]string{
		'a': "ÂÁÀÃÅâáàãåĀāĂăĄąǺǻ",
		'e': "ÊÉÈËèéêëĒēĔĕĖėĘęĚě",
		'i': "ÌÍÎÏìíîïĨĩĪīĬĭĮįİı",
		'o': "ÕØÒÓÔòóôõøŌōŎŏŐőǾǿ",
		'u': "ÙÚÛùúûŨũŪūŬŭŮůŰűŲųơƯư",
		'y': "ÝýÿŶŷŸ",
		'c': "ÇçĆćĈĉĊċČč",
		'd': "ÐðĎĐđ",
		'g': "ĜĝĞğĠġĢģ",
		'h': "ĤĥĦħ",
		'j': "Ĵĵ",
		'k': "Ķķĸ",
		'l': "ĹĺĻļĿŀŁł",
		'n': "ÑñŃńŅņŇňŉŊŋ",
		'r': "ŔŕŖŗŘř",
		's': "ŚśŜŝŞşŠš",
		't': "ŢţŤťŦŧ",
		'w': "Ŵŵ",
		'z': "ŹźŻżŽž",
	}
	for base, accented := range groups {
		for _, r := range accented {
			accentFold[r] = base
		}
	}
}

// Simplify strips punctuation, folds accented letters to their base letter
// and trims surrounding whitespace, so different spellings of the same name
// compare equal.
func Simplify(text string) string {
	text = punctuationRe.ReplaceAllString(text, "")
	text = strings.Map(func(r rune) rune {
		if base, ok := accentFold[r]; ok {
			return base
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}

// digraphFold expands letters that conventionally transliterate to two
// characters.
var digraphFold = map[rune]string{
	'Ä': "ae", 'Æ': "ae", 'ä': "ae", 'æ': "ae", 'Ǽ': "ae", 'ǽ': "ae",
	'Ö': "oe", 'ö': "oe", 'Œ': "oe", 'œ': "oe",
	'Ü': "ue", 'ü': "ue",
	'ß': "ss",
	'Ĳ': "ij", 'ĳ': "ij",
}

func foldDigraphs(text string) string {
	var b strings.Builder
	for _, r := range text {
		if rep, ok := digraphFold[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
