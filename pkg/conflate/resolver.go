// Package conflate selects, for every attribute of every matched place, the
// single winning candidate value. The rule-based resolver evaluates an
// ordered cascade of pure comparators per attribute; the first rule that
// distinguishes the candidates wins and the evaluation trail becomes the
// decision trace. A statistical resolver can be substituted behind the same
// Resolver interface without touching the matcher.
package conflate

import (
	"fmt"

	"github.com/placeforge/placeforge/pkg/logging"
	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

// UnresolvedTrace is the trace entry marking the explicit no-usable-value
// sentinel.
const UnresolvedTrace = "no_usable_value"

// Resolver picks a winning value for one attribute of one matched place.
// Implementations must be deterministic and total: same candidates in, same
// decision and trace out, and never an error for malformed metadata.
type Resolver interface {
	Resolve(pair places.MatchedPair, attr places.Attribute, candidates []places.AttributeCandidate) places.ResolvedAttribute
}

// RuleResolver is the rule-cascade implementation of Resolver.
type RuleResolver struct {
	ref      *refdata.Set
	cascades map[places.Attribute][]rule
}

// NewRuleResolver builds the per-attribute cascades once, up front; the
// resolver itself is immutable afterwards.
func NewRuleResolver(ref *refdata.Set) *RuleResolver {
	if ref == nil {
		ref = refdata.Default()
	}
	cascades := make(map[places.Attribute][]rule, len(places.Attributes()))
	for _, attr := range places.Attributes() {
		cascades[attr] = cascade(attr, ref)
	}
	return &RuleResolver{ref: ref, cascades: cascades}
}

// Resolve runs the attribute's cascade over the candidate pair. Every rule
// evaluated is recorded in the trace; the deciding rule is the final entry.
// Both sides empty resolves to the unresolved sentinel, never an error.
func (r *RuleResolver) Resolve(pair places.MatchedPair, attr places.Attribute, candidates []places.AttributeCandidate) places.ResolvedAttribute {
	resolved := places.ResolvedAttribute{
		PairKey:   pair.Key(),
		Attribute: attr,
	}

	a, b := splitCandidates(candidates)
	if a.Empty() && b.Empty() {
		resolved.Unresolved = true
		resolved.Trace = []string{UnresolvedTrace}
		return resolved
	}

	rules := r.cascades[attr]
	if rules == nil {
		rules = cascade(attr, r.ref)
	}

	for _, rl := range rules {
		switch rl.compare(a, b) {
		case pickA:
			resolved.Trace = append(resolved.Trace, fmt.Sprintf("%s=%s", rl.name, a.Provider))
			return fill(resolved, a)
		case pickB:
			resolved.Trace = append(resolved.Trace, fmt.Sprintf("%s=%s", rl.name, b.Provider))
			return fill(resolved, b)
		default:
			resolved.Trace = append(resolved.Trace, rl.name+"=tie")
		}
	}

	// The provider-priority tail always decides; reaching this point means
	// a cascade was built without it.
	logging.Warn().Str("attribute", string(attr)).Msg("Cascade ended without a decision")
	resolved.Trace = append(resolved.Trace, "default=provider_order")
	return fill(resolved, a)
}

// splitCandidates orders the candidate pair as (ProviderA, ProviderB),
// tolerating a short or unordered slice.
func splitCandidates(candidates []places.AttributeCandidate) (a, b places.AttributeCandidate) {
	for _, c := range candidates {
		if c.Provider == places.ProviderB {
			b = c
		} else {
			a = c
		}
	}
	return a, b
}

func fill(resolved places.ResolvedAttribute, winner places.AttributeCandidate) places.ResolvedAttribute {
	resolved.Value = winner.Value
	resolved.Raw = winner.Raw
	resolved.Provider = winner.Provider
	return resolved
}

// Resolution is the full decision set for one matched place.
type Resolution struct {
	Pair       places.MatchedPair
	Attributes map[places.Attribute]places.ResolvedAttribute
}

// AttributeStats summarizes decisions for one attribute across a run.
type AttributeStats struct {
	WonByA     int
	WonByB     int
	Conflicts  int // both sides offered a non-empty value
	Unresolved int
}

// Result is the conflation output for a whole matched-pair set.
type Result struct {
	Resolutions []Resolution
	Stats       map[places.Attribute]*AttributeStats
}

// ResolveAll resolves every known attribute for every matched pair. The
// resolver is total, so the output always holds exactly one decision per
// (pair, attribute).
func ResolveAll(pairs []places.MatchedPair, ag *Aggregator, resolver Resolver) *Result {
	result := &Result{
		Stats: make(map[places.Attribute]*AttributeStats, len(places.Attributes())),
	}
	for _, attr := range places.Attributes() {
		result.Stats[attr] = &AttributeStats{}
	}

	for _, pair := range pairs {
		res := Resolution{
			Pair:       pair,
			Attributes: make(map[places.Attribute]places.ResolvedAttribute, len(places.Attributes())),
		}
		for _, attr := range places.Attributes() {
			candidates := ag.Candidates(pair, attr)
			decision := resolver.Resolve(pair, attr, candidates)
			res.Attributes[attr] = decision

			stats := result.Stats[attr]
			switch {
			case decision.Unresolved:
				stats.Unresolved++
			case decision.Provider == places.ProviderA:
				stats.WonByA++
			default:
				stats.WonByB++
			}
			if !candidates[0].Empty() && !candidates[1].Empty() {
				stats.Conflicts++
			}
		}
		result.Resolutions = append(result.Resolutions, res)
	}

	return result
}

// DefaultAggregatorAndResolver wires the standard rule pipeline over one
// reference data set, keeping the normalizer and cascades consistent.
func DefaultAggregatorAndResolver(ref *refdata.Set) (*Aggregator, Resolver) {
	if ref == nil {
		ref = refdata.Default()
	}
	return NewAggregator(ref, normalize.New(ref)), NewRuleResolver(ref)
}
