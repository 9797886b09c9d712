package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		field string
		want  Kind
	}{
		{FirstName, KindText},
		{DisplayName, KindText},
		{ScreenName, KindText},
		{"Company", KindText},
		{"Notes", KindText},
		{PrimaryEmail, KindEmail},
		{SecondEmail, KindEmail},
		{CellularNumber, KindPhone},
		{FaxNumber, KindPhone},
		{"PreferMailFormat", KindSelection},
		{PopularityIndex, KindNumeric},
		{LastModifiedDate, KindNumeric},
		{"DbRowID", KindNumeric},
		{VirtualEmails, KindSet},
		{VirtualMailLists, KindSet},
		// Opaque values compared by exact equality only.
		{PhotoURI, KindPlain},
		{"HomeAddress2", KindPlain},
		{"WebPage1", KindPlain},
		{"Custom3", KindPlain},
		{"BirthYear", KindPlain},
		{"HomeZipCode", KindPlain},
		{"SomethingUnknown", KindPlain},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.field))
		})
	}
}

func TestDefaultValue(t *testing.T) {
	assert.Equal(t, "", DefaultValue(FirstName))
	assert.Equal(t, "", DefaultValue(PrimaryEmail))
	assert.Equal(t, "", DefaultValue("HomeAddress2"))
	assert.Equal(t, "0", DefaultValue(PopularityIndex))
	assert.Equal(t, "0", DefaultValue("PreferMailFormat"))
	assert.Equal(t, "{}", DefaultValue(VirtualPhoneNumbers))
}

func TestCharWeight(t *testing.T) {
	tests := []struct {
		name  string
		value string
		field string
		want  int
	}{
		{"lowercase text weighs nothing", "john smith", FirstName, 0},
		{"uppercase letters count", "John Smith", DisplayName, 2},
		{"punctuation and accents count", "Ärger!", "Notes", 2},
		{"digits count for text", "agent 007", "Notes", 3},
		{"digits free for phones", "0171 2345678", CellularNumber, 0},
		{"plus counts for phones", "+491712345678", CellularNumber, 1},
		{"empty", "", FirstName, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CharWeight(tt.value, tt.field))
		})
	}
}

func TestConsidered(t *testing.T) {
	all := Considered(nil)
	assert.Equal(t, AllFields, all)

	considered := Considered(IgnoredDefault)
	assert.Len(t, considered, len(AllFields)-len(IgnoredDefault))
	assert.NotContains(t, considered, "DbRowID")
	assert.NotContains(t, considered, "PhotoType")
	assert.Contains(t, considered, FirstName)
	assert.Contains(t, considered, PrimaryEmail)

	// Order of the survivors is preserved.
	assert.Equal(t, PhotoURI, considered[0])
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsName(FirstName))
	assert.True(t, IsName(DisplayName))
	assert.False(t, IsName(NickName))
	assert.False(t, IsName(ScreenName))

	assert.True(t, IsMeta(MetaCharWeight))
	assert.True(t, IsMeta(MetaNonEmptyFields))
	assert.False(t, IsMeta(VirtualEmails))

	assert.True(t, IsSet(VirtualPhoneNumbers))
	assert.False(t, IsSet(WorkPhone))
}
