package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestSubEq(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"rob smith", "rob smith", true},
		{"rob", "rob smith", true},
		{"smith", "rob smith", true},
		{"lee", "rob lee smith", true},
		{"roberto", "rob", false},
		{"rob", "roberto", false},
		{"", "", true},
		{"", "rob", false},
		{"ann", "anna lee", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubEq(tt.a, tt.b), "SubEq(%q, %q)", tt.a, tt.b)
		// Symmetry.
		assert.Equal(t, SubEq(tt.a, tt.b), SubEq(tt.b, tt.a), "SubEq(%q, %q) asymmetric", tt.a, tt.b)
	}
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b models.SimplifiedRecord
		want bool
	}{
		{
			name: "identical first and last",
			a:    models.SimplifiedRecord{FirstName: "rob", LastName: "smith"},
			b:    models.SimplifiedRecord{FirstName: "rob", LastName: "smith"},
			want: true,
		},
		{
			name: "first name prefix of longer",
			a:    models.SimplifiedRecord{FirstName: "rob", LastName: "smith"},
			b:    models.SimplifiedRecord{FirstName: "rob junior", LastName: "smith"},
			want: true,
		},
		{
			name: "first name not a whole token",
			a:    models.SimplifiedRecord{FirstName: "rob", LastName: "smith"},
			b:    models.SimplifiedRecord{FirstName: "roberto", LastName: "smith"},
			want: false,
		},
		{
			name: "display names equal same shape",
			a:    models.SimplifiedRecord{DisplayName: "acme"},
			b:    models.SimplifiedRecord{DisplayName: "acme"},
			want: true,
		},
		{
			name: "display name shapes differ",
			a:    models.SimplifiedRecord{DisplayName: "rob smith"},
			b:    models.SimplifiedRecord{DisplayName: "robsmith"},
			want: false,
		},
		{
			name: "screen names equal",
			a:    models.SimplifiedRecord{ScreenName: "robbie"},
			b:    models.SimplifiedRecord{ScreenName: "robbie"},
			want: true,
		},
		{
			name: "lone last name against display name",
			a:    models.SimplifiedRecord{LastName: "smith"},
			b:    models.SimplifiedRecord{DisplayName: "rob smith"},
			want: true,
		},
		{
			name: "all empty",
			a:    models.SimplifiedRecord{},
			b:    models.SimplifiedRecord{},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NamesMatch(tt.a, tt.b))
		})
	}
}

func TestEmailsMatch(t *testing.T) {
	a := models.SimplifiedRecord{PrimaryEmail: "x@gmail.com"}
	b := models.SimplifiedRecord{SecondEmail: "x@gmail.com"}
	assert.True(t, EmailsMatch(a, b))
	assert.False(t, EmailsMatch(a, models.SimplifiedRecord{PrimaryEmail: "y@gmail.com"}))
	assert.False(t, EmailsMatch(models.SimplifiedRecord{}, models.SimplifiedRecord{}))
}

func TestPhonesMatch(t *testing.T) {
	a := models.SimplifiedRecord{Phone1: "+491711", Phone3: "+49302"}
	assert.True(t, PhonesMatch(a, models.SimplifiedRecord{Phone2: "+49302"}))
	assert.False(t, PhonesMatch(a, models.SimplifiedRecord{Phone1: "+49999"}))
	// Empty slots never match each other.
	assert.False(t, PhonesMatch(models.SimplifiedRecord{}, models.SimplifiedRecord{Phone1: "+49999"}))
}

func TestCandidates(t *testing.T) {
	t.Run("differing screen names suppress all matching", func(t *testing.T) {
		a := models.SimplifiedRecord{FirstName: "rob", LastName: "smith", ScreenName: "keep-a"}
		b := models.SimplifiedRecord{FirstName: "rob", LastName: "smith", ScreenName: "keep-b"}
		assert.False(t, Candidates(a, b).Any())
	})

	t.Run("both blank records are flagged", func(t *testing.T) {
		flags := Candidates(models.SimplifiedRecord{}, models.SimplifiedRecord{})
		assert.True(t, flags.BothBlank)
		assert.True(t, flags.Any())
	})

	t.Run("name match reported", func(t *testing.T) {
		a := models.SimplifiedRecord{FirstName: "rob", LastName: "smith"}
		b := models.SimplifiedRecord{FirstName: "robert", LastName: "smith"}
		// "rob" vs "robert" is not affix containment; use a token form.
		assert.False(t, Candidates(a, b).Names)

		c := models.SimplifiedRecord{FirstName: "rob john", LastName: "smith"}
		d := models.SimplifiedRecord{FirstName: "rob", LastName: "smith"}
		flags := Candidates(c, d)
		assert.True(t, flags.Names)
		assert.False(t, flags.Emails)
	})
}
