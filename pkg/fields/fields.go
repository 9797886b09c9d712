// Package fields provides the static catalog of known contact fields: the
// kind of each field, its default value, and the derived/virtual field groups
// used by matching and comparison.
package fields

// Kind classifies how a field is normalized and compared.
type Kind int

const (
	// KindPlain is an opaque string value compared by exact equality only
	// (photo URIs, sync metadata, zip codes, birth date parts, ...).
	KindPlain Kind = iota
	// KindText is human-entered text: whitespace-collapsed, case-folded and
	// diacritic-folded, compared by substring containment.
	KindText
	// KindEmail is an email address field.
	KindEmail
	// KindPhone is a phone number field.
	KindPhone
	// KindSelection is a boolean/enumerated preference rendered as a string.
	KindSelection
	// KindNumeric is an integer field (popularity, timestamps, row ids).
	KindNumeric
	// KindSet is a derived set-valued field compared by set containment.
	KindSet
)

// Well-known field names. The catalog keys follow the Thunderbird address
// book property names so records round-trip through vCard importers intact.
const (
	FirstName      = "FirstName"
	LastName       = "LastName"
	DisplayName    = "DisplayName"
	NickName       = "NickName"
	ScreenName     = "_AimScreenName"
	PrimaryEmail   = "PrimaryEmail"
	SecondEmail    = "SecondEmail"
	CellularNumber = "CellularNumber"
	HomePhone      = "HomePhone"
	WorkPhone      = "WorkPhone"
	FaxNumber      = "FaxNumber"
	PagerNumber    = "PagerNumber"
	PhotoURI       = "PhotoURI"

	PopularityIndex  = "PopularityIndex"
	LastModifiedDate = "LastModifiedDate"

	// Virtual matchable groups. These never exist on a raw record; they are
	// synthesized during enrichment and matching.
	VirtualNames        = "__Names"
	VirtualEmails       = "__Emails"
	VirtualPhoneNumbers = "__PhoneNumbers"
	VirtualMailLists    = "__MailListNames"

	// Meta fields carry enrichment results used only for tie-breaking.
	MetaNonEmptyFields = "__NonEmptyFields"
	MetaCharWeight     = "__CharWeight"
)

// AllFields lists every known field in display order.
var AllFields = []string{
	PhotoURI, "PhotoType", "PhotoName",
	NickName, VirtualNames, FirstName, "PhoneticFirstName", LastName, "PhoneticLastName",
	"SpouseName", "FamilyName", DisplayName, "_PhoneticName", "PreferDisplayName",
	ScreenName, "_GoogleTalk", "CardType", "Category", "AllowRemoteContent",
	"PreferMailFormat", VirtualMailLists, VirtualEmails, "DefaultEmail",
	PrimaryEmail, SecondEmail,
	VirtualPhoneNumbers, CellularNumber, "CellularNumberType", HomePhone, "HomePhoneType",
	WorkPhone, "WorkPhoneType", FaxNumber, "FaxNumberType", PagerNumber, "PagerNumberType",
	"DefaultAddress",
	"HomeAddress", "HomeAddress2", "HomeCity", "HomeState", "HomeZipCode", "HomeCountry",
	"WorkAddress", "WorkAddress2", "WorkCity", "WorkState", "WorkZipCode", "WorkCountry",
	"JobTitle", "Department", "Company",
	"BirthYear", "BirthMonth", "BirthDay",
	"WebPage1", "WebPage2",
	"Custom1", "Custom2", "Custom3", "Custom4", "Notes",
	PopularityIndex, LastModifiedDate,
	"UID", "UUID", "CardUID",
	"groupDavKey", "groupDavVersion", "groupDavVersionPrev",
	"RecordKey", "DbRowID",
	"unprocessed:rev", "unprocessed:x-ablabel",
}

// Matchables lists the virtual groups that participate in candidate matching.
var Matchables = []string{VirtualNames, VirtualEmails, VirtualPhoneNumbers}

// MetaFields lists the enrichment-result fields excluded from comparison.
var MetaFields = []string{MetaNonEmptyFields, MetaCharWeight}

// IgnoredDefault lists fields that carry no human-meaningful duplicate signal:
// type qualifiers, internal ids and sync metadata.
var IgnoredDefault = []string{
	"PhotoType", "PhotoName",
	"CellularNumberType", "HomePhoneType", "WorkPhoneType", "FaxNumberType", "PagerNumberType",
	"UID", "UUID", "CardUID",
	"groupDavKey", "groupDavVersion", "groupDavVersionPrev",
	"RecordKey", "DbRowID",
	"unprocessed:rev", "unprocessed:x-ablabel",
}

// catalog maps every field with a non-plain kind. Fields absent from the map
// (and unknown fields) are KindPlain.
var catalog = map[string]Kind{
	"PhotoName":         KindText,
	NickName:            KindText,
	FirstName:           KindText,
	"PhoneticFirstName": KindText,
	LastName:            KindText,
	"PhoneticLastName":  KindText,
	"SpouseName":        KindText,
	"FamilyName":        KindText,
	DisplayName:         KindText,
	"_PhoneticName":     KindText,
	ScreenName:          KindText,
	"_GoogleTalk":       KindText,
	"DefaultAddress":    KindText,
	"HomeAddress":       KindText,
	"HomeCity":          KindText,
	"HomeState":         KindText,
	"HomeCountry":       KindText,
	"WorkAddress":       KindText,
	"WorkCity":          KindText,
	"WorkState":         KindText,
	"WorkCountry":       KindText,
	"JobTitle":          KindText,
	"Department":        KindText,
	"Company":           KindText,
	"Notes":             KindText,

	PrimaryEmail: KindEmail,
	SecondEmail:  KindEmail,

	CellularNumber: KindPhone,
	HomePhone:      KindPhone,
	WorkPhone:      KindPhone,
	FaxNumber:      KindPhone,
	PagerNumber:    KindPhone,

	"PreferMailFormat":   KindSelection,
	"PreferDisplayName":  KindSelection,
	"AllowRemoteContent": KindSelection,

	PopularityIndex:  KindNumeric,
	LastModifiedDate: KindNumeric,
	"RecordKey":      KindNumeric,
	"DbRowID":        KindNumeric,

	VirtualMailLists:    KindSet,
	VirtualEmails:       KindSet,
	VirtualPhoneNumbers: KindSet,
}

// KindOf returns the kind of a field. Unknown fields are KindPlain.
func KindOf(field string) Kind {
	return catalog[field]
}

// IsText reports whether the field is folded, case-insensitive text.
func IsText(field string) bool { return KindOf(field) == KindText }

// IsEmail reports whether the field holds an email address.
func IsEmail(field string) bool { return KindOf(field) == KindEmail }

// IsPhone reports whether the field holds a phone number.
func IsPhone(field string) bool { return KindOf(field) == KindPhone }

// IsSelection reports whether the field is an enumerated preference.
func IsSelection(field string) bool { return KindOf(field) == KindSelection }

// IsNumeric reports whether the field is an integer.
func IsNumeric(field string) bool { return KindOf(field) == KindNumeric }

// IsSet reports whether the field is a derived set-valued group.
func IsSet(field string) bool { return KindOf(field) == KindSet }

// IsName reports whether the field is one of the three name fields that get
// the structural "Last, First" / middle-initial / name-particle transforms.
func IsName(field string) bool {
	return field == FirstName || field == LastName || field == DisplayName
}

// IsMeta reports whether the field is an enrichment meta field.
func IsMeta(field string) bool {
	return field == MetaNonEmptyFields || field == MetaCharWeight
}

// DefaultValue returns the default raw value for a field: "0" for selections
// and numerics, "{}" for sets, "" otherwise.
func DefaultValue(field string) string {
	switch KindOf(field) {
	case KindSelection, KindNumeric:
		return "0"
	case KindSet:
		return "{}"
	default:
		return ""
	}
}

// CharWeight scores the information density of a value: the number of
// characters that remain after stripping spaces and digits (phone fields) or
// spaces and lowercase letters (everything else). Uppercase letters, accented
// letters and punctuation all count, so distinctive spellings weigh more than
// plain lowercase text. Used only as a tie-break signal, never for matching.
func CharWeight(value, field string) int {
	phone := IsPhone(field)
	weight := 0
	for _, r := range value {
		if r == ' ' {
			continue
		}
		if phone {
			if r >= '0' && r <= '9' {
				continue
			}
		} else if r >= 'a' && r <= 'z' {
			continue
		}
		weight++
	}
	return weight
}

// Considered returns AllFields minus the given ignored fields, preserving
// order. This is the field set that participates in enrichment and
// comparison.
func Considered(ignored []string) []string {
	skip := make(map[string]struct{}, len(ignored))
	for _, f := range ignored {
		skip[f] = struct{}{}
	}
	out := make([]string, 0, len(AllFields))
	for _, f := range AllFields {
		if _, ok := skip[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
