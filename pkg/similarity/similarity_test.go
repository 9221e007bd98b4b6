package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/placeforge/placeforge/pkg/similarity"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "tonys pizzeria", "tonys pizzeria", 100},
		{"both empty", "", "", 100},
		{"one empty", "tonys", "", 0},
		{"single edit", "tonys", "tony", 89},
		{"disjoint", "abc", "xyz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, similarity.Ratio(tt.a, tt.b))
		})
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"tonys pizzeria", "tonys pizza"},
		{"123 main st", "123 main street"},
		{"", "abc"},
	}
	for _, p := range pairs {
		assert.Equal(t, similarity.Ratio(p[0], p[1]), similarity.Ratio(p[1], p[0]))
	}
}

func TestTokenSortRatio(t *testing.T) {
	// Word order must not matter.
	assert.Equal(t, 100, similarity.TokenSortRatio("pizzeria tonys", "tonys pizzeria"))
	assert.Equal(t, 100, similarity.TokenSortRatio("b a c", "c b a"))
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "tonys pizzeria", "tonys pizzeria", 100},
		{"reordered", "pizzeria tonys", "tonys pizzeria", 100},
		{"subset scores full", "tonys pizzeria", "tonys pizzeria restaurant", 100},
		{"duplicate tokens collapse", "tonys tonys pizzeria", "tonys pizzeria", 100},
		{"both empty", "", "", 100},
		{"one empty", "tonys", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, similarity.TokenSetRatio(tt.a, tt.b))
		})
	}
}

func TestTokenSetRatioStreetAbbreviation(t *testing.T) {
	a := "123 main st springfield il 62704"
	b := "123 main street springfield il 62704"

	got := similarity.TokenSetRatio(a, b)
	assert.GreaterOrEqual(t, got, 85, "abbreviated street form should clear the matching floor")
	assert.Less(t, got, 100)
}

func TestTokenSetRatioDisjoint(t *testing.T) {
	got := similarity.TokenSetRatio("tonys pizzeria", "blue bottle coffee")
	assert.Less(t, got, 85)
}
