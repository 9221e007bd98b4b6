package conflate

import (
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

// verdict is the outcome of one rule comparing the two candidates.
type verdict int

const (
	tie verdict = iota
	pickA
	pickB
)

// rule is one pure comparator in an attribute cascade. Rules never mutate
// candidates; they only rank them.
type rule struct {
	name    string
	compare func(a, b places.AttributeCandidate) verdict
}

// cascade returns the ordered rule list for an attribute. Rules run in
// priority order and the first non-tie wins; the shared tail (confidence
// presence, then fixed provider priority) guarantees termination with
// exactly one winner.
func cascade(attr places.Attribute, ref *refdata.Set) []rule {
	var rules []rule

	rules = append(rules, completeness())

	switch attr {
	case places.AttrName:
		rules = append(rules,
			canonicalBrand(),
			confidence(),
			suffixPreference(),
			wordCountWindow(ref.WordWindow()),
		)
	case places.AttrAddress:
		rules = append(rules,
			confidence(),
			addressComponents(),
			postalPresence(),
		)
	case places.AttrPhone:
		rules = append(rules,
			confidence(),
			phoneLength(),
		)
	case places.AttrWebsite:
		rules = append(rules,
			junkDomain(),
			confidence(),
			httpsPreference(),
		)
	case places.AttrCategory:
		rules = append(rules,
			confidence(),
			categoryBreadth(),
			categorySpecificity(),
		)
	default:
		rules = append(rules, confidence())
	}

	rules = append(rules,
		confidencePresence(),
		providerPriority(ref),
	)
	return rules
}

// completeness prefers a non-empty candidate over an empty one.
func completeness() rule {
	return rule{name: "completeness", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case !a.Empty() && b.Empty():
			return pickA
		case a.Empty() && !b.Empty():
			return pickB
		default:
			return tie
		}
	}}
}

// canonicalBrand prefers a candidate whose normalized value is in the
// curated brand table. Canonicalization outranks raw confidence: the table
// encodes ground truth.
func canonicalBrand() rule {
	return rule{name: "canonical_brand", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case a.Flags.CanonicalBrand && !b.Flags.CanonicalBrand:
			return pickA
		case b.Flags.CanonicalBrand && !a.Flags.CanonicalBrand:
			return pickB
		default:
			return tie
		}
	}}
}

// confidence compares explicit provider scores. It only distinguishes when
// both sides carry one; presence-vs-absence is handled by the late
// confidencePresence rule so a lone score cannot trump the earlier rules.
func confidence() rule {
	return rule{name: "confidence", compare: func(a, b places.AttributeCandidate) verdict {
		if a.Confidence == nil || b.Confidence == nil {
			return tie
		}
		switch {
		case *a.Confidence > *b.Confidence:
			return pickA
		case *b.Confidence > *a.Confidence:
			return pickB
		default:
			return tie
		}
	}}
}

// confidencePresence lets a candidate with any score beat one with none,
// once every substantive rule has tied.
func confidencePresence() rule {
	return rule{name: "confidence_presence", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case a.Confidence != nil && b.Confidence == nil:
			return pickA
		case b.Confidence != nil && a.Confidence == nil:
			return pickB
		default:
			return tie
		}
	}}
}

// suffixPreference prefers the name without a redundant business-entity
// suffix; the suffix-free form is the cleaner canonical one.
func suffixPreference() rule {
	return rule{name: "suffix_preference", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case !a.Flags.BusinessSuffix && b.Flags.BusinessSuffix:
			return pickA
		case !b.Flags.BusinessSuffix && a.Flags.BusinessSuffix:
			return pickB
		default:
			return tie
		}
	}}
}

// wordCountWindow prefers a name whose token count sits inside the expected
// window: neither a bare single token nor an overlong descriptive string.
func wordCountWindow(window refdata.WordWindow) rule {
	return rule{name: "word_count_window", compare: func(a, b places.AttributeCandidate) verdict {
		inA := window.Contains(a.Flags.TokenCount)
		inB := window.Contains(b.Flags.TokenCount)
		switch {
		case inA && !inB:
			return pickA
		case inB && !inA:
			return pickB
		default:
			return tie
		}
	}}
}

// addressComponents prefers the address with more populated structured
// components.
func addressComponents() rule {
	return rule{name: "address_components", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case a.Flags.AddressComponents > b.Flags.AddressComponents:
			return pickA
		case b.Flags.AddressComponents > a.Flags.AddressComponents:
			return pickB
		default:
			return tie
		}
	}}
}

// postalPresence prefers the address carrying a postal code.
func postalPresence() rule {
	return rule{name: "postal_presence", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case a.Flags.HasPostal && !b.Flags.HasPostal:
			return pickA
		case b.Flags.HasPostal && !a.Flags.HasPostal:
			return pickB
		default:
			return tie
		}
	}}
}

// phoneLength prefers a fully formed ten-digit number over a short one.
func phoneLength() rule {
	return rule{name: "phone_length", compare: func(a, b places.AttributeCandidate) verdict {
		fullA := len(a.Value) >= 10
		fullB := len(b.Value) >= 10
		switch {
		case fullA && !fullB:
			return pickA
		case fullB && !fullA:
			return pickB
		default:
			return tie
		}
	}}
}

// junkDomain demotes websites hosted on social/aggregator domains.
func junkDomain() rule {
	return rule{name: "junk_domain", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case !a.Flags.JunkDomain && b.Flags.JunkDomain:
			return pickA
		case !b.Flags.JunkDomain && a.Flags.JunkDomain:
			return pickB
		default:
			return tie
		}
	}}
}

// httpsPreference prefers an https URL over plain http.
func httpsPreference() rule {
	return rule{name: "https_preference", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case a.Flags.HTTPS && !b.Flags.HTTPS:
			return pickA
		case b.Flags.HTTPS && !a.Flags.HTTPS:
			return pickB
		default:
			return tie
		}
	}}
}

// categoryBreadth prefers a multi-category value over a single category.
func categoryBreadth() rule {
	return rule{name: "category_breadth", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case a.Flags.CategoryCount > b.Flags.CategoryCount:
			return pickA
		case b.Flags.CategoryCount > a.Flags.CategoryCount:
			return pickB
		default:
			return tie
		}
	}}
}

// categorySpecificity prefers the more specific (longer) category string.
func categorySpecificity() rule {
	return rule{name: "category_specificity", compare: func(a, b places.AttributeCandidate) verdict {
		switch {
		case len(a.Value) > len(b.Value):
			return pickA
		case len(b.Value) > len(a.Value):
			return pickB
		default:
			return tie
		}
	}}
}

// providerPriority is the deterministic last resort: the fixed source
// tie-break order always distinguishes the two candidates.
func providerPriority(ref *refdata.Set) rule {
	return rule{name: "provider_priority", compare: func(a, b places.AttributeCandidate) verdict {
		if ref.PreferredOf(a.Provider, b.Provider) == a.Provider {
			return pickA
		}
		return pickB
	}}
}
