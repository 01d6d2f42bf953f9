package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp.", "acme"},
		{"ABC Construction, Inc.", "abc construction"},
		{"Nestlé S.A.", "nestle"},
		{"  Johnson & Johnson  ", "johnson and johnson"},
		{"Corp", "corp"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme-widgets", Slug("Acme Widgets, Inc."))
	assert.Equal(t, "johnson-and-johnson", Slug("Johnson & Johnson"))
	assert.Equal(t, "loreal", Slug("L'Oréal"))
	assert.Equal(t, "", Slug("  "))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Shares of ACME rose 4%", "Acme Corp"))
	assert.True(t, Contains("Nestle reported earnings", "Nestlé"))
	assert.False(t, Contains("Globex reported earnings", "Acme"))
	assert.False(t, Contains("", "Acme"))
	assert.False(t, Contains("Acme", ""))
}

func TestIndexAll(t *testing.T) {
	got := IndexAll("Acme and acme and ACME", "Acme")
	assert.Equal(t, []int{0, 9, 18}, got)
	assert.Nil(t, IndexAll("nothing here", "Acme"))
	assert.Equal(t, -1, Index("nothing here", "Acme"))
}

func TestMentions_PunctuatedNames(t *testing.T) {
	tests := []struct {
		text    string
		company string
		want    []Mention
	}{
		{"AT&T and Verizon", "AT&T", []Mention{{Start: 0, End: 8}}},
		{"Deal with AT & T closed", "AT&T", []Mention{{Start: 10, End: 18}}},
		{"Macy's said", "Macy's", []Mention{{Start: 0, End: 5}}},
		{"Macy’s said", "Macys", []Mention{{Start: 0, End: 5}}},
		{"Johnson & Johnson and J&J", "Johnson & Johnson", []Mention{{Start: 0, End: 19}}},
		{"nothing here", "AT&T", nil},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, Mentions(tc.text, tc.company))
		})
	}
	assert.True(t, Contains("Shares of AT&T rose", "AT&T Inc."))
}
