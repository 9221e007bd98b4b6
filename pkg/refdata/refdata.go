// Package refdata holds the curated reference data the normalizer and
// resolver consume: the canonical brand table, the business-suffix list, the
// name word-count window, and the provider tie-break priority. The data is
// loaded once at process start and passed explicitly; nothing here is mutated
// after load.
package refdata

import (
	"os"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/placeforge/placeforge/pkg/errors"
	"github.com/placeforge/placeforge/pkg/places"
)

// WordWindow bounds the preferred token count for a name. Candidates outside
// the window are penalized by the word-count rule.
type WordWindow struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether a token count falls inside the window.
func (w WordWindow) Contains(n int) bool {
	return n >= w.Min && n <= w.Max
}

// Set is the immutable reference data set.
type Set struct {
	// brands maps normalized alias strings to one canonical brand string
	// (many-to-one).
	brands map[string]string

	// canonical holds the distinct canonical brand strings for membership
	// checks.
	canonical map[string]bool

	// suffixes are business-entity suffixes stripped from trailing name
	// tokens ("llc", "inc", ...).
	suffixes map[string]bool

	// junkDomains are website domains demoted during website resolution.
	junkDomains []string

	window   WordWindow
	priority []places.Provider
}

// file is the on-disk YAML shape of a reference data set.
type file struct {
	Brands           map[string][]string `yaml:"brands"` // canonical -> aliases
	Suffixes         []string            `yaml:"suffixes"`
	JunkDomains      []string            `yaml:"junk_domains"`
	WordWindow       *WordWindow         `yaml:"word_window"`
	ProviderTieBreak []string            `yaml:"provider_tie_break"`
}

// Default returns the compiled-in reference data set.
func Default() *Set {
	s := &Set{
		brands:    make(map[string]string),
		canonical: make(map[string]bool),
		suffixes:  make(map[string]bool),
		junkDomains: []string{
			"facebook.com",
			"instagram.com",
			"youtube.com",
			"twitter.com",
			"x.com",
			"bing.com",
			"yelp.com",
			"tripadvisor.com",
		},
		window:   WordWindow{Min: 2, Max: 6},
		priority: []places.Provider{places.ProviderA, places.ProviderB},
	}

	for _, suffix := range []string{
		"llc", "inc", "incorporated", "corporation", "corp",
		"company", "co", "ltd", "limited",
	} {
		s.suffixes[suffix] = true
	}

	for canonical, aliases := range map[string][]string{
		"walmart":        {"walmart supercenter", "walmart grocery", "wal mart"},
		"mcdonalds":      {"mc donalds", "mcdonald s"},
		"cvs":            {"cvs pharmacy", "cvs health"},
		"walgreens":      {"walgreens pharmacy"},
		"7 eleven":       {"7 11", "seven eleven"},
		"starbucks":      {"starbucks coffee"},
		"subway":         {"subway restaurant", "subway sandwiches"},
		"dollar general": {"dollar general store"},
	} {
		s.addBrand(canonical, aliases)
	}

	return s
}

// Load reads a YAML reference data file and overlays it on the defaults.
// Sections absent from the file keep their default values.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	s := Default()

	if len(f.Brands) > 0 {
		s.brands = make(map[string]string)
		s.canonical = make(map[string]bool)
		for canonical, aliases := range f.Brands {
			s.addBrand(canonical, aliases)
		}
	}

	if len(f.Suffixes) > 0 {
		s.suffixes = make(map[string]bool)
		for _, suffix := range f.Suffixes {
			if cleaned := cleanKey(suffix); cleaned != "" {
				s.suffixes[cleaned] = true
			}
		}
	}

	if len(f.JunkDomains) > 0 {
		s.junkDomains = s.junkDomains[:0]
		for _, domain := range f.JunkDomains {
			if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
				s.junkDomains = append(s.junkDomains, d)
			}
		}
	}

	if f.WordWindow != nil {
		if f.WordWindow.Min < 1 || f.WordWindow.Max < f.WordWindow.Min {
			return nil, errors.NewValidationError("word_window", *f.WordWindow,
				"window must satisfy 1 <= min <= max")
		}
		s.window = *f.WordWindow
	}

	if len(f.ProviderTieBreak) > 0 {
		priority, err := parsePriority(f.ProviderTieBreak)
		if err != nil {
			return nil, err
		}
		s.priority = priority
	}

	return s, nil
}

// foldDiacritics mirrors the normalizer's diacritic folding so table keys
// land in the same canonical space as the lookups.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// cleanKey canonicalizes a configured key the way normalized values are
// produced: lowercase, diacritics folded, punctuation replaced by spaces,
// whitespace collapsed. Without this, entries like "Joe's Pizza" would never
// match their own normalized form.
func cleanKey(raw string) string {
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

func (s *Set) addBrand(canonical string, aliases []string) {
	canonical = cleanKey(canonical)
	if canonical == "" {
		return
	}
	s.canonical[canonical] = true
	s.brands[canonical] = canonical
	for _, alias := range aliases {
		alias = cleanKey(alias)
		if alias != "" {
			s.brands[alias] = canonical
		}
	}
}

func parsePriority(names []string) ([]places.Provider, error) {
	seen := make(map[places.Provider]bool, len(names))
	priority := make([]places.Provider, 0, len(names))
	for _, name := range names {
		p := places.Provider(strings.ToLower(strings.TrimSpace(name)))
		switch p {
		case places.ProviderA, places.ProviderB:
		default:
			return nil, errors.NewValidationError("provider_tie_break", name, "unknown provider")
		}
		if seen[p] {
			return nil, errors.NewValidationError("provider_tie_break", name, "duplicate provider")
		}
		seen[p] = true
		priority = append(priority, p)
	}
	return priority, nil
}

// CanonicalBrand returns the canonical brand string for a normalized name and
// whether the name is in the brand table at all (as canonical or alias).
func (s *Set) CanonicalBrand(normalized string) (string, bool) {
	canonical, ok := s.brands[normalized]
	return canonical, ok
}

// IsCanonical reports whether a normalized name is itself a canonical brand
// string.
func (s *Set) IsCanonical(normalized string) bool {
	return s.canonical[normalized]
}

// IsSuffix reports whether a token is a known business-entity suffix.
func (s *Set) IsSuffix(token string) bool {
	return s.suffixes[token]
}

// JunkDomains returns the demoted website domains.
func (s *Set) JunkDomains() []string {
	return s.junkDomains
}

// IsJunkDomain reports whether a domain belongs to a demoted website host.
func (s *Set) IsJunkDomain(domain string) bool {
	for _, junk := range s.junkDomains {
		if domain == junk || strings.HasSuffix(domain, "."+junk) {
			return true
		}
	}
	return false
}

// WordWindow returns the preferred name token-count window.
func (s *Set) WordWindow() WordWindow {
	return s.window
}

// ProviderPriority returns the fixed tie-break order, most preferred first.
func (s *Set) ProviderPriority() []places.Provider {
	return s.priority
}

// PreferredOf returns whichever of the two providers ranks higher in the
// tie-break order.
func (s *Set) PreferredOf(a, b places.Provider) places.Provider {
	for _, p := range s.priority {
		if p == a {
			return a
		}
		if p == b {
			return b
		}
	}
	return a
}
