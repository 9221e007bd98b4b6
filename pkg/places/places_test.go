package places_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/placeforge/placeforge/pkg/places"
)

func TestMatchable(t *testing.T) {
	rec := &places.PlaceRecord{
		ID:       "a1",
		Provider: places.ProviderA,
		Normalized: map[places.Attribute]string{
			places.AttrName:    "tonys pizzeria",
			places.AttrAddress: "123 main st",
		},
	}
	assert.True(t, rec.Matchable())

	delete(rec.Normalized, places.AttrAddress)
	assert.False(t, rec.Matchable())

	var nilRec *places.PlaceRecord
	assert.False(t, nilRec.Matchable())
}

func TestValueAccessors(t *testing.T) {
	rec := &places.PlaceRecord{
		Raw:        map[places.Attribute]string{places.AttrName: "Tony's"},
		Normalized: map[places.Attribute]string{places.AttrName: "tonys"},
	}
	assert.Equal(t, "Tony's", rec.RawValue(places.AttrName))
	assert.Equal(t, "tonys", rec.NormalizedValue(places.AttrName))
	assert.Equal(t, "", rec.RawValue(places.AttrPhone))

	empty := &places.PlaceRecord{}
	assert.Equal(t, "", empty.NormalizedValue(places.AttrName))
}

func TestPairKey(t *testing.T) {
	pair := places.MatchedPair{
		A: &places.PlaceRecord{ID: "a1"},
		B: &places.PlaceRecord{ID: "b1"},
	}
	assert.Equal(t, "a1|b1", pair.Key())
}

func TestAttributesOrder(t *testing.T) {
	attrs := places.Attributes()
	assert.Equal(t, []places.Attribute{
		places.AttrName,
		places.AttrAddress,
		places.AttrPhone,
		places.AttrWebsite,
		places.AttrCategory,
	}, attrs)
}

func TestCandidateEmpty(t *testing.T) {
	assert.True(t, places.AttributeCandidate{}.Empty())
	assert.False(t, places.AttributeCandidate{Value: "tonys"}.Empty())
	assert.True(t, places.AttributeCandidate{Raw: "Tony's"}.Empty(), "raw alone is not usable")
}
