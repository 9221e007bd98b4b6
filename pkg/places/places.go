// Package places defines the data model shared by the linkage and conflation
// stages: provider records, matched pairs, attribute candidates, and resolved
// attributes.
package places

import "fmt"

// Provider identifies one of the two data sources. The pipeline is fixed at
// exactly two providers; generalizing to N sources is out of scope.
type Provider string

const (
	// ProviderA is the structured feed that carries per-record confidence
	// scores and nested attribute encodings.
	ProviderA Provider = "provider_a"

	// ProviderB is the flat consumer-facing feed. It carries no confidence
	// scores.
	ProviderB Provider = "provider_b"
)

// Attribute names one logical attribute of a place.
type Attribute string

const (
	// AttrName is the business name.
	AttrName Attribute = "name"
	// AttrAddress is the full postal address.
	AttrAddress Attribute = "address"
	// AttrPhone is the contact phone number.
	AttrPhone Attribute = "phone"
	// AttrWebsite is the business website.
	AttrWebsite Attribute = "website"
	// AttrCategory is the business category.
	AttrCategory Attribute = "category"
)

// Attributes returns all known attributes in resolution order.
func Attributes() []Attribute {
	return []Attribute{AttrName, AttrAddress, AttrPhone, AttrWebsite, AttrCategory}
}

// PlaceRecord is one entity as reported by one provider.
type PlaceRecord struct {
	ID         string               `json:"record_id" yaml:"record_id"`
	Provider   Provider             `json:"provider" yaml:"provider"`
	Raw        map[Attribute]string `json:"raw_attributes" yaml:"raw_attributes"`
	Normalized map[Attribute]string `json:"normalized_attributes" yaml:"normalized_attributes"`

	// Confidence is the provider-supplied quality score. Only ProviderA
	// populates it; nil means absent.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// RawValue returns the raw value for an attribute, or "" when absent.
func (r *PlaceRecord) RawValue(attr Attribute) string {
	if r == nil || r.Raw == nil {
		return ""
	}
	return r.Raw[attr]
}

// NormalizedValue returns the canonical value for an attribute, or "" when absent.
func (r *PlaceRecord) NormalizedValue(attr Attribute) string {
	if r == nil || r.Normalized == nil {
		return ""
	}
	return r.Normalized[attr]
}

// Matchable reports whether the record can participate in matching. A record
// needs both a normalized name and a normalized address to satisfy the exact
// join key or produce a meaningful similarity score.
func (r *PlaceRecord) Matchable() bool {
	return r.NormalizedValue(AttrName) != "" && r.NormalizedValue(AttrAddress) != ""
}

// MatchKind distinguishes how a pair was formed.
type MatchKind string

const (
	// MatchExact means both records share identical normalized name and address.
	MatchExact MatchKind = "exact"
	// MatchFuzzy means the pair passed the token-set similarity thresholds.
	MatchFuzzy MatchKind = "fuzzy"
)

// MatchedPair is an ordered (ProviderA, ProviderB) record pair judged to
// denote the same real-world place.
type MatchedPair struct {
	A    *PlaceRecord
	B    *PlaceRecord
	Kind MatchKind

	// NameScore and AddressScore are the token-set similarities (0-100)
	// achieved by the fuzzy stage. Exact pairs report 100/100.
	NameScore    int
	AddressScore int
}

// Key returns a stable identifier for the pair, usable as an output table key.
func (p MatchedPair) Key() string {
	return fmt.Sprintf("%s|%s", p.A.ID, p.B.ID)
}

// AttributeCandidate is one provider's offered value for one attribute of a
// matched place. Candidates are constructed per resolution run and never
// persisted on their own.
type AttributeCandidate struct {
	Attribute  Attribute
	Value      string // canonical form
	Raw        string
	Provider   Provider
	Confidence *float64
	Flags      CandidateFlags
}

// Empty reports whether the candidate offers no usable value.
func (c AttributeCandidate) Empty() bool {
	return c.Value == ""
}

// CandidateFlags carries facts derived during aggregation that the rule
// cascade consumes. They are computed once so rules stay pure comparisons.
type CandidateFlags struct {
	CanonicalBrand    bool // cleaned raw name hits the brand table as supplied
	BusinessSuffix    bool // raw name ends with a known business suffix
	TokenCount        int  // tokens in the canonical value
	AddressComponents int  // populated structured components
	HasPostal         bool // value contains a postal code
	JunkDomain        bool // website domain is a social/aggregator site
	HTTPS             bool // raw website uses https
	CategoryCount     int  // categories in a multi-category value
}

// ResolvedAttribute is the final decision for one (place, attribute) pair.
// It is created once by the resolver and immutable thereafter.
type ResolvedAttribute struct {
	PairKey   string
	Attribute Attribute

	Value    string
	Raw      string
	Provider Provider

	// Unresolved marks the explicit sentinel for "no usable value on either
	// side"; distinct from a resolved-but-empty value.
	Unresolved bool

	// Trace lists the names of the cascade rules that fired, in order.
	Trace []string
}
