package conflate

import (
	"regexp"
	"strings"

	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

// Aggregator collects, for a matched pair and one attribute, both providers'
// candidate values together with the derived flags the rule cascade consumes.
// It is a stateless transform; it owns no data beyond the current call.
type Aggregator struct {
	ref  *refdata.Set
	norm *normalize.Normalizer
}

// NewAggregator creates an Aggregator over the given reference data.
func NewAggregator(ref *refdata.Set, norm *normalize.Normalizer) *Aggregator {
	if ref == nil {
		ref = refdata.Default()
	}
	if norm == nil {
		norm = normalize.New(ref)
	}
	return &Aggregator{ref: ref, norm: norm}
}

// Candidates returns the candidate pair for one attribute of a matched
// place, ProviderA first. A side that offers nothing still yields a
// candidate with an empty value so the cascade's completeness rule can see
// the asymmetry.
func (ag *Aggregator) Candidates(pair places.MatchedPair, attr places.Attribute) []places.AttributeCandidate {
	return []places.AttributeCandidate{
		ag.candidate(pair.A, attr),
		ag.candidate(pair.B, attr),
	}
}

var postalRe = regexp.MustCompile(`\b\d{5}(-\d{4})?\b`)

func (ag *Aggregator) candidate(rec *places.PlaceRecord, attr places.Attribute) places.AttributeCandidate {
	c := places.AttributeCandidate{
		Attribute:  attr,
		Value:      rec.NormalizedValue(attr),
		Raw:        rec.RawValue(attr),
		Provider:   rec.Provider,
		Confidence: rec.Confidence,
	}

	c.Flags.TokenCount = normalize.TokenCount(c.Value)

	switch attr {
	case places.AttrName:
		// Brand credit goes to the form the provider actually supplied:
		// a name that only hits the table after suffix stripping or alias
		// mapping is not itself canonical.
		_, c.Flags.CanonicalBrand = ag.ref.CanonicalBrand(normalize.Clean(c.Raw))
		c.Flags.BusinessSuffix = ag.norm.HasBusinessSuffix(c.Raw)
	case places.AttrAddress:
		c.Flags.AddressComponents = countParts(c.Raw, ",")
		c.Flags.HasPostal = postalRe.MatchString(c.Raw)
	case places.AttrWebsite:
		c.Flags.JunkDomain = c.Value != "" && ag.ref.IsJunkDomain(c.Value)
		c.Flags.HTTPS = strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Raw)), "https://")
	case places.AttrCategory:
		c.Flags.CategoryCount = countParts(strings.ReplaceAll(c.Raw, ";", ","), ",")
	}

	return c
}

// countParts counts non-blank delimiter-separated segments.
func countParts(s, sep string) int {
	n := 0
	for _, part := range strings.Split(s, sep) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}
