// Package normalize canonicalizes free-text attribute values so records from
// both providers can be compared. Normalization is deterministic and total:
// malformed or absent input yields an empty canonical string, never an error.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

// Normalizer canonicalizes raw attribute values. It is stateless apart from
// the immutable reference data it was constructed with.
type Normalizer struct {
	ref *refdata.Set
}

// New creates a Normalizer over the given reference data.
func New(ref *refdata.Set) *Normalizer {
	if ref == nil {
		ref = refdata.Default()
	}
	return &Normalizer{ref: ref}
}

// Normalize canonicalizes a raw value for the given attribute kind.
// Shared steps: lowercase, diacritic folding, punctuation stripped to spaces,
// whitespace collapsed. Names additionally lose trailing business-entity
// suffixes and are mapped through the canonical brand table.
func (n *Normalizer) Normalize(raw string, attr places.Attribute) string {
	switch attr {
	case places.AttrName:
		return n.Name(raw)
	case places.AttrAddress:
		return clean(raw)
	case places.AttrPhone:
		return Phone(raw)
	case places.AttrWebsite:
		return Domain(raw)
	case places.AttrCategory:
		return Category(raw)
	default:
		return clean(raw)
	}
}

// Name canonicalizes a business name: shared cleanup, then trailing
// business-suffix removal, then the many-to-one brand alias mapping.
func (n *Normalizer) Name(raw string) string {
	name := clean(raw)
	if name == "" {
		return ""
	}

	name = n.stripTrailingSuffixes(name)

	if canonical, ok := n.ref.CanonicalBrand(name); ok {
		return canonical
	}
	return name
}

// Address assembles constituent components in fixed order with a single
// delimiter, then applies the shared cleanup. Empty components are skipped.
func (n *Normalizer) Address(street, city, region, postal string) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{street, city, region, postal} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return clean(strings.Join(parts, " "))
}

// HasBusinessSuffix reports whether the cleaned value ends in a known
// business-entity suffix token.
func (n *Normalizer) HasBusinessSuffix(raw string) bool {
	tokens := strings.Fields(clean(raw))
	if len(tokens) < 2 {
		return false
	}
	return n.ref.IsSuffix(tokens[len(tokens)-1])
}

// stripTrailingSuffixes drops business-entity suffixes from the end of a
// name, one trailing token at a time, but never strips the name down to
// nothing.
func (n *Normalizer) stripTrailingSuffixes(name string) string {
	tokens := strings.Fields(name)
	for len(tokens) > 1 && n.ref.IsSuffix(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// Phone normalizes a phone number to bare digits, keeping the last ten when
// at least ten are present (national formats with country prefixes collapse
// to the same key).
func Phone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= 10 {
		return digits[len(digits)-10:]
	}
	return digits
}

// Domain normalizes a URL to its bare host: lowercase, scheme and leading
// www stripped, path and query cut.
func Domain(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return ""
	}
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSpace(u)
}

// Category normalizes a category label: underscores become spaces, then the
// shared cleanup applies.
func Category(raw string) string {
	return clean(strings.ReplaceAll(raw, "_", " "))
}

// Clean applies only the shared cleanup, without suffix stripping or brand
// aliasing. Callers use it to inspect a raw value in canonical form while
// keeping every token the provider supplied.
func Clean(raw string) string {
	return clean(raw)
}

// TokenCount returns the number of whitespace-separated tokens in a value.
func TokenCount(value string) int {
	return len(strings.Fields(value))
}

// foldDiacritics decomposes and removes combining marks, so "café" and
// "cafe" normalize identically.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// clean applies the shared cleanup: lowercase, diacritic folding, every rune
// outside [a-z0-9 ] replaced by a space, whitespace collapsed.
func clean(raw string) string {
	s := strings.ToLower(raw)

	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
