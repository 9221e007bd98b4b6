package refdata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

func TestDefaultSet(t *testing.T) {
	s := refdata.Default()

	canonical, ok := s.CanonicalBrand("walmart supercenter")
	require.True(t, ok)
	assert.Equal(t, "walmart", canonical)

	canonical, ok = s.CanonicalBrand("walmart")
	require.True(t, ok)
	assert.Equal(t, "walmart", canonical)
	assert.True(t, s.IsCanonical("walmart"))
	assert.False(t, s.IsCanonical("walmart supercenter"))

	_, ok = s.CanonicalBrand("tonys pizzeria")
	assert.False(t, ok)

	assert.True(t, s.IsSuffix("llc"))
	assert.True(t, s.IsSuffix("inc"))
	assert.False(t, s.IsSuffix("pizza"))

	assert.True(t, s.IsJunkDomain("facebook.com"))
	assert.True(t, s.IsJunkDomain("m.facebook.com"))
	assert.False(t, s.IsJunkDomain("tonys.com"))

	assert.Equal(t, refdata.WordWindow{Min: 2, Max: 6}, s.WordWindow())
	assert.Equal(t, []places.Provider{places.ProviderA, places.ProviderB}, s.ProviderPriority())
	assert.Equal(t, places.ProviderA, s.PreferredOf(places.ProviderA, places.ProviderB))
	assert.Equal(t, places.ProviderA, s.PreferredOf(places.ProviderB, places.ProviderA))
}

func TestWordWindowContains(t *testing.T) {
	w := refdata.WordWindow{Min: 2, Max: 6}
	assert.False(t, w.Contains(1))
	assert.True(t, w.Contains(2))
	assert.True(t, w.Contains(6))
	assert.False(t, w.Contains(7))
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.yaml")
	content := `
brands:
  tonys pizzeria:
    - tonys pizza
    - tony s pizzeria
suffixes:
  - gmbh
word_window:
  min: 1
  max: 4
provider_tie_break:
  - provider_b
  - provider_a
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := refdata.Load(path)
	require.NoError(t, err)

	canonical, ok := s.CanonicalBrand("tonys pizza")
	require.True(t, ok)
	assert.Equal(t, "tonys pizzeria", canonical)

	// The brand section replaces the defaults wholesale.
	_, ok = s.CanonicalBrand("walmart")
	assert.False(t, ok)

	assert.True(t, s.IsSuffix("gmbh"))
	assert.False(t, s.IsSuffix("llc"))

	// Junk domains were not overridden and keep their defaults.
	assert.True(t, s.IsJunkDomain("yelp.com"))

	assert.Equal(t, refdata.WordWindow{Min: 1, Max: 4}, s.WordWindow())
	assert.Equal(t, places.ProviderB, s.PreferredOf(places.ProviderA, places.ProviderB))
}

func TestLoadCleansBrandKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.yaml")
	content := `
brands:
  "Joe's Pizza":
    - "Joe's  Pizza Co."
suffixes:
  - "GmbH."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := refdata.Load(path)
	require.NoError(t, err)

	// Keys and aliases are stored in the same canonical space lookups use.
	canonical, ok := s.CanonicalBrand("joe s pizza")
	require.True(t, ok)
	assert.Equal(t, "joe s pizza", canonical)

	canonical, ok = s.CanonicalBrand("joe s pizza co")
	require.True(t, ok)
	assert.Equal(t, "joe s pizza", canonical)

	// The table entry matches its own normalized form end to end.
	n := normalize.New(s)
	_, ok = s.CanonicalBrand(normalize.Clean("Joe's Pizza"))
	assert.True(t, ok)
	assert.Equal(t, "joe s pizza", n.Name("Joe's Pizza"))

	assert.True(t, s.IsSuffix("gmbh"))
}

func TestLoadRejectsBadWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("word_window:\n  min: 5\n  max: 2\n"), 0o644))

	_, err := refdata.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider_tie_break:\n  - provider_c\n"), 0o644))

	_, err := refdata.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := refdata.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
