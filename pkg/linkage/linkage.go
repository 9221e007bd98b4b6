// Package linkage implements the record linkage matcher: an exact join stage
// on (normalized name, normalized address) followed by a blocked, token-set
// scored fuzzy stage, deduplicated to a deterministic 1:1 assignment.
package linkage

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/placeforge/placeforge/pkg/errors"
	"github.com/placeforge/placeforge/pkg/logging"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/similarity"
)

// DefaultThreshold is the token-set similarity floor applied independently to
// name and address in the fuzzy stage.
const DefaultThreshold = 85

// Config controls the matcher.
type Config struct {
	// NameThreshold and AddressThreshold are the fuzzy-match floors on the
	// 0-100 similarity scale.
	NameThreshold    int
	AddressThreshold int

	// Workers bounds the fuzzy-stage worker pool. Zero means NumCPU.
	Workers int

	// Blocking buckets records by the first normalized-name token before
	// fuzzy scoring. Disable to force the full quadratic scan, e.g. when
	// verifying that blocking changes nothing on a corpus.
	Blocking bool

	// ProgressEvery emits a progress log after this many fuzzy comparisons.
	// Zero disables progress logging.
	ProgressEvery int64
}

// DefaultConfig returns the standard matcher configuration.
func DefaultConfig() Config {
	return Config{
		NameThreshold:    DefaultThreshold,
		AddressThreshold: DefaultThreshold,
		Workers:          runtime.NumCPU(),
		Blocking:         true,
		ProgressEvery:    100000,
	}
}

// Exclusion records a place excluded from matching, with the reason, so
// callers can audit unmatched-due-to-missing-fields separately from
// unmatched-due-to-no-counterpart.
type Exclusion struct {
	Record *places.PlaceRecord
	Reason string
}

// Result is the matcher output: the final 1:1 pair set plus the audit trail
// of everything that did not pair up.
type Result struct {
	Pairs []places.MatchedPair

	// Excluded lists records dropped before matching (missing name or
	// address after normalization).
	Excluded []Exclusion

	// UnmatchedA and UnmatchedB are matchable records that found no
	// counterpart in either stage.
	UnmatchedA []*places.PlaceRecord
	UnmatchedB []*places.PlaceRecord

	// Comparisons counts fuzzy similarity evaluations performed.
	Comparisons int64

	// FuzzyCandidates counts above-threshold pairs before 1:1 assignment.
	FuzzyCandidates int
}

// Matcher produces matched pairs from the two provider record sets.
// It never mutates the records it is given.
type Matcher struct {
	cfg Config
}

// New creates a Matcher. Zero or negative thresholds fall back to the
// defaults so a partially filled Config stays usable.
func New(cfg Config) *Matcher {
	if cfg.NameThreshold <= 0 {
		cfg.NameThreshold = DefaultThreshold
	}
	if cfg.AddressThreshold <= 0 {
		cfg.AddressThreshold = DefaultThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Matcher{cfg: cfg}
}

// candidate is an above-threshold fuzzy pair awaiting assignment.
type candidate struct {
	a, b      *places.PlaceRecord
	nameScore int
	addrScore int
}

// Match runs both stages and returns the deduplicated pair set. A bad record
// never aborts the run; it lands in the exclusion audit instead.
func (m *Matcher) Match(ctx context.Context, recordsA, recordsB []*places.PlaceRecord) (*Result, error) {
	result := &Result{}

	eligibleA := m.screen(recordsA, result)
	eligibleB := m.screen(recordsB, result)

	logging.Info().
		Int("provider_a", len(eligibleA)).
		Int("provider_b", len(eligibleB)).
		Int("excluded", len(result.Excluded)).
		Msg("Matching records")

	exactPairs, restA, restB := m.exactStage(eligibleA, eligibleB)
	result.Pairs = append(result.Pairs, exactPairs...)

	candidates, err := m.fuzzyStage(ctx, restA, restB, result)
	if err != nil {
		return nil, err
	}
	result.FuzzyCandidates = len(candidates)

	fuzzyPairs := assign(candidates)
	result.Pairs = append(result.Pairs, fuzzyPairs...)

	m.auditUnmatched(restA, restB, fuzzyPairs, result)

	logging.Info().
		Int("exact", len(exactPairs)).
		Int("fuzzy", len(fuzzyPairs)).
		Int("unmatched_a", len(result.UnmatchedA)).
		Int("unmatched_b", len(result.UnmatchedB)).
		Msg("Matching complete")

	return result, nil
}

// screen drops records that cannot satisfy the join key or produce a
// meaningful similarity score, recording each exclusion.
func (m *Matcher) screen(records []*places.PlaceRecord, result *Result) []*places.PlaceRecord {
	eligible := make([]*places.PlaceRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if !rec.Matchable() {
			result.Excluded = append(result.Excluded, Exclusion{
				Record: rec,
				Reason: errors.ErrNotMatchable.Error(),
			})
			continue
		}
		eligible = append(eligible, rec)
	}
	return eligible
}

// exactStage groups by (normalized name, normalized address) and emits one
// pair per group holding exactly one record from each provider. Every other
// group falls through to the fuzzy stage intact.
func (m *Matcher) exactStage(recordsA, recordsB []*places.PlaceRecord) (pairs []places.MatchedPair, restA, restB []*places.PlaceRecord) {
	type group struct {
		a []*places.PlaceRecord
		b []*places.PlaceRecord
	}

	groups := make(map[string]*group)
	key := func(r *places.PlaceRecord) string {
		return r.NormalizedValue(places.AttrName) + "\x00" + r.NormalizedValue(places.AttrAddress)
	}

	for _, rec := range recordsA {
		k := key(rec)
		if groups[k] == nil {
			groups[k] = &group{}
		}
		groups[k].a = append(groups[k].a, rec)
	}
	for _, rec := range recordsB {
		k := key(rec)
		if groups[k] == nil {
			groups[k] = &group{}
		}
		groups[k].b = append(groups[k].b, rec)
	}

	matched := make(map[*places.PlaceRecord]bool)
	for _, g := range groups {
		if len(g.a) == 1 && len(g.b) == 1 {
			pairs = append(pairs, places.MatchedPair{
				A:            g.a[0],
				B:            g.b[0],
				Kind:         places.MatchExact,
				NameScore:    100,
				AddressScore: 100,
			})
			matched[g.a[0]] = true
			matched[g.b[0]] = true
		}
	}

	// Stable output order regardless of map iteration.
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].A.ID < pairs[j].A.ID })

	for _, rec := range recordsA {
		if !matched[rec] {
			restA = append(restA, rec)
		}
	}
	for _, rec := range recordsB {
		if !matched[rec] {
			restB = append(restB, rec)
		}
	}
	return pairs, restA, restB
}

// bucket is one unit of fuzzy work: a subset of each side sharing a block key.
type bucket struct {
	a []*places.PlaceRecord
	b []*places.PlaceRecord
}

// fuzzyStage scores remaining cross-provider pairs and returns those meeting
// both thresholds. Bucket scoring fans out across a worker pool; results are
// merged before the sequential assignment step.
func (m *Matcher) fuzzyStage(ctx context.Context, recordsA, recordsB []*places.PlaceRecord, result *Result) ([]candidate, error) {
	if len(recordsA) == 0 || len(recordsB) == 0 {
		return nil, nil
	}

	buckets := m.buckets(recordsA, recordsB)

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		candidates  []candidate
		comparisons atomic.Int64
	)

	work := make(chan bucket)
	for i := 0; i < m.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for bk := range work {
				local := m.scoreBucket(bk, &comparisons)
				if len(local) > 0 {
					mu.Lock()
					candidates = append(candidates, local...)
					mu.Unlock()
				}
			}
		}()
	}

	var cancelErr error
	for _, bk := range buckets {
		if err := ctx.Err(); err != nil {
			cancelErr = errors.ErrCanceled
			break
		}
		work <- bk
	}
	close(work)
	wg.Wait()

	result.Comparisons = comparisons.Load()
	if cancelErr != nil {
		return nil, cancelErr
	}
	return candidates, nil
}

// buckets partitions both sides by block key. Without blocking the whole
// input forms a single bucket and the scan is the full |A|x|B| product.
func (m *Matcher) buckets(recordsA, recordsB []*places.PlaceRecord) []bucket {
	if !m.cfg.Blocking {
		return []bucket{{a: recordsA, b: recordsB}}
	}

	byKey := make(map[string]*bucket)
	add := func(rec *places.PlaceRecord, side int) {
		k := blockKey(rec)
		bk := byKey[k]
		if bk == nil {
			bk = &bucket{}
			byKey[k] = bk
		}
		if side == 0 {
			bk.a = append(bk.a, rec)
		} else {
			bk.b = append(bk.b, rec)
		}
	}
	for _, rec := range recordsA {
		add(rec, 0)
	}
	for _, rec := range recordsB {
		add(rec, 1)
	}

	keys := make([]string, 0, len(byKey))
	for k, bk := range byKey {
		if len(bk.a) > 0 && len(bk.b) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	buckets := make([]bucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, *byKey[k])
	}
	return buckets
}

// blockKey is the cheap bucket key: the first token of the normalized name.
// Matchable records always have one.
func blockKey(rec *places.PlaceRecord) string {
	name := rec.NormalizedValue(places.AttrName)
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return name[:i]
		}
	}
	return name
}

// scoreBucket runs the within-bucket product. Name similarity gates the
// address computation since both must clear their thresholds anyway.
func (m *Matcher) scoreBucket(bk bucket, comparisons *atomic.Int64) []candidate {
	var local []candidate
	for _, ra := range bk.a {
		nameA := ra.NormalizedValue(places.AttrName)
		addrA := ra.NormalizedValue(places.AttrAddress)
		for _, rb := range bk.b {
			n := comparisons.Add(1)
			if m.cfg.ProgressEvery > 0 && n%m.cfg.ProgressEvery == 0 {
				logging.Info().Int64("comparisons", n).Msg("Fuzzy matching progress")
			}

			nameScore := similarity.TokenSetRatio(nameA, rb.NormalizedValue(places.AttrName))
			if nameScore < m.cfg.NameThreshold {
				continue
			}
			addrScore := similarity.TokenSetRatio(addrA, rb.NormalizedValue(places.AttrAddress))
			if addrScore < m.cfg.AddressThreshold {
				continue
			}
			local = append(local, candidate{a: ra, b: rb, nameScore: nameScore, addrScore: addrScore})
		}
	}
	return local
}

// assign walks candidates in a fixed deterministic order and accepts a pair
// only when neither side is consumed: greedy, maximal, reproducible. This
// step is strictly sequential; the tie-break ordering is the contract that
// keeps reruns bit-for-bit identical.
func assign(candidates []candidate) []places.MatchedPair {
	sort.Slice(candidates, func(i, j int) bool {
		si := candidates[i].nameScore + candidates[i].addrScore
		sj := candidates[j].nameScore + candidates[j].addrScore
		if si != sj {
			return si > sj
		}
		if candidates[i].a.ID != candidates[j].a.ID {
			return candidates[i].a.ID < candidates[j].a.ID
		}
		return candidates[i].b.ID < candidates[j].b.ID
	})

	usedA := make(map[string]bool)
	usedB := make(map[string]bool)
	var pairs []places.MatchedPair
	for _, c := range candidates {
		if usedA[c.a.ID] || usedB[c.b.ID] {
			continue
		}
		usedA[c.a.ID] = true
		usedB[c.b.ID] = true
		pairs = append(pairs, places.MatchedPair{
			A:            c.a,
			B:            c.b,
			Kind:         places.MatchFuzzy,
			NameScore:    c.nameScore,
			AddressScore: c.addrScore,
		})
	}
	return pairs
}

// auditUnmatched records matchable records that survived both stages without
// a counterpart.
func (m *Matcher) auditUnmatched(restA, restB []*places.PlaceRecord, fuzzyPairs []places.MatchedPair, result *Result) {
	pairedA := make(map[string]bool, len(fuzzyPairs))
	pairedB := make(map[string]bool, len(fuzzyPairs))
	for _, p := range fuzzyPairs {
		pairedA[p.A.ID] = true
		pairedB[p.B.ID] = true
	}
	for _, rec := range restA {
		if !pairedA[rec.ID] {
			result.UnmatchedA = append(result.UnmatchedA, rec)
		}
	}
	for _, rec := range restB {
		if !pairedB[rec.ID] {
			result.UnmatchedB = append(result.UnmatchedB, rec)
		}
	}
}
