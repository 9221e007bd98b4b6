package evaluate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeforge/placeforge/internal/evaluate"
	"github.com/placeforge/placeforge/pkg/conflate"
	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

func ptr(f float64) *float64 { return &f }

func buildRecord(id string, provider places.Provider, confidence *float64, raw map[places.Attribute]string) *places.PlaceRecord {
	n := normalize.New(refdata.Default())
	rec := &places.PlaceRecord{
		ID:         id,
		Provider:   provider,
		Raw:        make(map[places.Attribute]string, len(raw)),
		Normalized: make(map[places.Attribute]string, len(raw)),
		Confidence: confidence,
	}
	for attr, value := range raw {
		rec.Raw[attr] = value
		rec.Normalized[attr] = n.Normalize(value, attr)
	}
	return rec
}

func resolvedResult(t *testing.T) *conflate.Result {
	t.Helper()
	a := buildRecord("a1", places.ProviderA, ptr(0.8), map[places.Attribute]string{
		places.AttrName:  "Tony's Pizzeria",
		places.AttrPhone: "(555) 123-4567",
	})
	b := buildRecord("b1", places.ProviderB, nil, map[places.Attribute]string{
		places.AttrName: "Tony's Pizzeria",
	})
	pair := places.MatchedPair{A: a, B: b, Kind: places.MatchFuzzy, NameScore: 100, AddressScore: 100}

	ag, resolver := conflate.DefaultAggregatorAndResolver(refdata.Default())
	return conflate.ResolveAll([]places.MatchedPair{pair}, ag, resolver)
}

func writeTruth(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "truth.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEvaluate(t *testing.T) {
	result := resolvedResult(t)

	truth := writeTruth(t, `pair_key,attribute,expected
a1|b1,name,tony s pizzeria
a1|b1,phone,5551234567
a1|b1,phone,9999999999
a9|b9,name,blue bottle
`)

	report, err := evaluate.Evaluate(result, truth)
	require.NoError(t, err)

	name := report.Attributes[places.AttrName]
	assert.Equal(t, 1, name.Labeled)
	assert.Equal(t, 1, name.Correct)
	assert.Equal(t, 1, name.Missing)
	assert.InDelta(t, 1.0, name.Accuracy(), 1e-9)

	phone := report.Attributes[places.AttrPhone]
	assert.Equal(t, 2, phone.Labeled)
	assert.Equal(t, 1, phone.Correct)
	assert.InDelta(t, 0.5, phone.Accuracy(), 1e-9)
}

func TestEvaluateSkipsUnknownAttribute(t *testing.T) {
	result := resolvedResult(t)

	truth := writeTruth(t, `pair_key,attribute,expected
a1|b1,latitude,41.0
a1|b1,name,tony s pizzeria
`)

	report, err := evaluate.Evaluate(result, truth)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attributes[places.AttrName].Labeled)
}

func TestEvaluateUnresolvedNeverCorrect(t *testing.T) {
	result := resolvedResult(t)

	// Neither record offered a website, so the decision is the unresolved
	// sentinel and cannot satisfy any expectation.
	truth := writeTruth(t, `pair_key,attribute,expected
a1|b1,website,tonys.com
`)

	report, err := evaluate.Evaluate(result, truth)
	require.NoError(t, err)

	web := report.Attributes[places.AttrWebsite]
	assert.Equal(t, 1, web.Labeled)
	assert.Equal(t, 0, web.Correct)
}

func TestEvaluateRequiresColumns(t *testing.T) {
	result := resolvedResult(t)
	truth := writeTruth(t, "pair_key,value\na1|b1,x\n")

	_, err := evaluate.Evaluate(result, truth)
	assert.Error(t, err)
}

func TestMetricsAccuracyEmpty(t *testing.T) {
	m := &evaluate.Metrics{}
	assert.Zero(t, m.Accuracy())
}
