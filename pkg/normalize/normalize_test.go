package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

func TestNameNormalization(t *testing.T) {
	n := normalize.New(refdata.Default())

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"punctuation becomes a token break", "Tony's Pizzeria!", "tony s pizzeria"},
		{"collapses whitespace", "  Tonys   Pizzeria  ", "tonys pizzeria"},
		{"strips trailing llc", "Joe's Pizza LLC", "joe s pizza"},
		{"strips trailing inc", "Acme Diner, Inc.", "acme diner"},
		{"strips stacked suffixes", "Acme Holdings Co Ltd", "acme holdings"},
		{"keeps interior suffix token", "Co Op Market", "co op market"},
		{"never strips to empty", "LLC", "llc"},
		{"folds diacritics", "Café München", "cafe munchen"},
		{"maps brand alias to canonical", "Walmart Supercenter", "walmart"},
		{"maps alias after suffix strip", "Starbucks Coffee Company", "starbucks"},
		{"keeps unknown name as cleaned", "Blue Bottle", "blue bottle"},
		{"empty input", "", ""},
		{"punctuation only", "!!! ---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Name(tt.raw))
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	n := normalize.New(refdata.Default())

	for _, raw := range []string{
		"Tony's Pizzeria",
		"Joe's Pizza LLC",
		"Walmart Supercenter",
		"Café München",
		"",
	} {
		once := n.Name(raw)
		assert.Equal(t, once, n.Name(once), "normalizing %q twice changed the value", raw)
	}
}

func TestAddress(t *testing.T) {
	n := normalize.New(refdata.Default())

	got := n.Address("123 Main St.", "Springfield", "IL", "62704")
	assert.Equal(t, "123 main st springfield il 62704", got)

	// Empty components are skipped, not joined as blanks.
	got = n.Address("123 Main St", "", "IL", "")
	assert.Equal(t, "123 main st il", got)

	assert.Equal(t, "", n.Address("", "", "", ""))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"+1 555 123 4567", "5551234567"},
		{"1-555-123-4567", "5551234567"},
		{"123-4567", "1234567"},
		{"", ""},
		{"ext. 42", "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.Phone(tt.raw), "raw %q", tt.raw)
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.tonys.com/menu", "tonys.com"},
		{"http://tonys.com", "tonys.com"},
		{"WWW.Tonys.COM", "tonys.com"},
		{"tonys.com/order?ref=x", "tonys.com"},
		{"tonys.com#top", "tonys.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize.Domain(tt.raw), "raw %q", tt.raw)
	}
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "pizza restaurant", normalize.Category("pizza_restaurant"))
	assert.Equal(t, "pizza italian", normalize.Category("Pizza, Italian"))
}

func TestNormalizeDispatch(t *testing.T) {
	n := normalize.New(refdata.Default())

	assert.Equal(t, "joe s pizza", n.Normalize("Joe's Pizza LLC", places.AttrName))
	assert.Equal(t, "5551234567", n.Normalize("(555) 123-4567", places.AttrPhone))
	assert.Equal(t, "tonys.com", n.Normalize("https://tonys.com", places.AttrWebsite))
	assert.Equal(t, "pizza restaurant", n.Normalize("pizza_restaurant", places.AttrCategory))
	// Address dispatch applies shared cleanup only; component assembly is a
	// separate call.
	assert.Equal(t, "123 main st", n.Normalize("123 Main St.", places.AttrAddress))
}

func TestHasBusinessSuffix(t *testing.T) {
	n := normalize.New(refdata.Default())

	assert.True(t, n.HasBusinessSuffix("Joe's Pizza LLC"))
	assert.True(t, n.HasBusinessSuffix("Acme Diner, Inc."))
	assert.False(t, n.HasBusinessSuffix("Joe's Pizza"))
	assert.False(t, n.HasBusinessSuffix("LLC"))
}

func TestTokenCount(t *testing.T) {
	require.Equal(t, 0, normalize.TokenCount(""))
	require.Equal(t, 2, normalize.TokenCount("joes pizza"))
	require.Equal(t, 3, normalize.TokenCount("  a  b  c "))
}
