// Package match decides whether two simplified records are candidate
// duplicates. Matching is deliberately limited to exact equality and
// whole-token affix containment after normalization; there is no fuzzy
// string distance.
package match

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Flags reports which predicates qualified a pair as a candidate.
type Flags struct {
	Names     bool `json:"names"`
	Emails    bool `json:"emails"`
	Phones    bool `json:"phones"`
	BothBlank bool `json:"bothBlank"`
}

// Any reports whether at least one predicate matched.
func (f Flags) Any() bool {
	return f.Names || f.Emails || f.Phones || f.BothBlank
}

// Candidates evaluates all predicates for a pair. Pairs whose screen names
// differ never match; giving one record a distinct screen name is the way to
// permanently exclude it from being re-matched against a specific other
// record.
func Candidates(a, b models.SimplifiedRecord) Flags {
	if a.ScreenName != b.ScreenName {
		return Flags{}
	}
	return Flags{
		Names:  NamesMatch(a, b),
		Emails: EmailsMatch(a, b),
		Phones: PhonesMatch(a, b),
		// Two completely blank records are indistinguishable and still get
		// surfaced.
		BothBlank: noNames(a) && noNames(b) && noEmailsPhones(a) && noEmailsPhones(b),
	}
}

func subEqOneWay(longer, shorter string) bool {
	return shorter != "" && len(shorter)+2 <= len(longer) &&
		(strings.HasPrefix(longer, shorter+" ") ||
			strings.Contains(longer, " "+shorter+" ") ||
			strings.HasSuffix(longer, " "+shorter))
}

// SubEq is boundary-aware substring equality: true when the strings are equal
// or the shorter appears as a whole token (prefix, suffix or interior) of the
// longer. "rob" matches "rob smith" but not "roberto".
func SubEq(a, b string) bool {
	return a == b || subEqOneWay(a, b) || subEqOneWay(b, a)
}

// NamesMatch reports whether the name parts of two simplified records agree:
// equal screen names, display names of the same single/multi token shape that
// sub-equal, first and last names that pairwise sub-equal, or one side's lone
// first-or-last field matching the other's display name.
func NamesMatch(a, b models.SimplifiedRecord) bool {
	f1, l1, d1, s1 := a.FirstName, a.LastName, a.DisplayName, a.ScreenName
	f2, l2, d2, s2 := b.FirstName, b.LastName, b.DisplayName, b.ScreenName
	return (s1 != "" && SubEq(s1, s2)) ||
		(d1 != "" && strings.Contains(d1, " ") == strings.Contains(d2, " ") && SubEq(d1, d2)) ||
		(f1 != "" && l1 != "" && SubEq(f1, f2) && SubEq(l1, l2)) ||
		(d1 == "" && d2 == "" && (f1 != "" || l1 != "") && SubEq(f1, f2) && SubEq(l1, l2)) ||
		(d1 == "" && d2 != "" && (f1 == "") != (l1 == "") && (SubEq(f1, d2) || SubEq(l1, d2))) ||
		(d2 == "" && d1 != "" && (f2 == "") != (l2 == "") && (SubEq(f2, d1) || SubEq(l2, d1)))
}

// EmailsMatch reports whether any email of one record equals any of the other.
func EmailsMatch(a, b models.SimplifiedRecord) bool {
	a1, a2 := a.PrimaryEmail, a.SecondEmail
	b1, b2 := b.PrimaryEmail, b.SecondEmail
	return (a1 != "" && (a1 == b1 || a1 == b2)) ||
		(a2 != "" && (a2 == b1 || a2 == b2))
}

// PhonesMatch reports whether any phone slot of one record equals any slot of
// the other.
func PhonesMatch(a, b models.SimplifiedRecord) bool {
	for _, p := range [...]string{a.Phone1, a.Phone2, a.Phone3} {
		if p == "" {
			continue
		}
		if p == b.Phone1 || p == b.Phone2 || p == b.Phone3 {
			return true
		}
	}
	return false
}

func noNames(v models.SimplifiedRecord) bool {
	return v.FirstName == "" && v.LastName == "" && v.DisplayName == "" && v.ScreenName == ""
}

func noEmailsPhones(v models.SimplifiedRecord) bool {
	return v.PrimaryEmail == "" && v.SecondEmail == "" &&
		v.Phone1 == "" && v.Phone2 == "" && v.Phone3 == ""
}
