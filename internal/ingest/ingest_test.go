package ingest_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeforge/placeforge/internal/ingest"
	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provider_a.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, f.Close())
	return path
}

func writeLines(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provider_b.json")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func newLoader() *ingest.Loader {
	return ingest.NewLoader(normalize.New(refdata.Default()))
}

func TestProviderA(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"place_id", "names", "categories", "confidence", "websites", "phones", "addresses"},
		{
			"a1",
			`{"primary":"Tony's Pizzeria"}`,
			`{"primary":"pizza_restaurant"}`,
			"0.87",
			`["https://tonys.com/menu"]`,
			`["(555) 123-4567"]`,
			`[{"freeform":"123 Main St","locality":"Springfield","region":"IL","postcode":"62704"}]`,
		},
	})

	records, err := newLoader().ProviderA(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "a1", rec.ID)
	assert.Equal(t, places.ProviderA, rec.Provider)

	assert.Equal(t, "Tony's Pizzeria", rec.RawValue(places.AttrName))
	assert.Equal(t, "123 Main St, Springfield, IL, 62704", rec.RawValue(places.AttrAddress))

	assert.Equal(t, "tony s pizzeria", rec.NormalizedValue(places.AttrName))
	assert.Equal(t, "123 main st springfield il 62704", rec.NormalizedValue(places.AttrAddress))
	assert.Equal(t, "5551234567", rec.NormalizedValue(places.AttrPhone))
	assert.Equal(t, "tonys.com", rec.NormalizedValue(places.AttrWebsite))
	assert.Equal(t, "pizza restaurant", rec.NormalizedValue(places.AttrCategory))

	require.NotNil(t, rec.Confidence)
	assert.InDelta(t, 0.87, *rec.Confidence, 1e-9)
	assert.True(t, rec.Matchable())
}

func TestProviderAMalformedConfidence(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"place_id", "names", "confidence", "addresses"},
		{"a1", `{"primary":"Tonys"}`, "not-a-number", `[{"freeform":"1 Main St"}]`},
		{"a2", `{"primary":"Joes"}`, "", `[{"freeform":"2 Main St"}]`},
		{"a3", `{"primary":"Moes"}`, "NaN", `[{"freeform":"3 Main St"}]`},
	})

	records, err := newLoader().ProviderA(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Nil(t, rec.Confidence, "record %s", rec.ID)
	}
}

func TestProviderAMissingFields(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"place_id", "names", "confidence", "addresses"},
		{"", `{"primary":"Tonys Pizzeria"}`, "0.5", `[]`},
	})

	records, err := newLoader().ProviderA(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "a-2", rec.ID)
	assert.Equal(t, "", rec.NormalizedValue(places.AttrAddress))
	assert.False(t, rec.Matchable())
}

func TestProviderARequiresColumns(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"place_id", "confidence"},
		{"a1", "0.5"},
	})

	_, err := newLoader().ProviderA(path)
	assert.Error(t, err)
}

func TestProviderB(t *testing.T) {
	path := writeLines(t, `{"business_id":"b1","name":"Tony's Pizzeria Restaurant","address":"123 Main Street","city":"Springfield","state":"IL","postal_code":"62704","phone":"555-123-4567","categories":"Pizza, Italian"}
{"business_id":"b2","name":"Joe's Pizza LLC","address":"9 Oak Ave","city":"Portland","state":"OR","postal_code":"97201","phone":"","categories":""}
`)

	records, err := newLoader().ProviderB(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, "b1", rec.ID)
	assert.Equal(t, places.ProviderB, rec.Provider)
	assert.Nil(t, rec.Confidence)
	assert.Equal(t, "tony s pizzeria restaurant", rec.NormalizedValue(places.AttrName))
	assert.Equal(t, "123 main street springfield il 62704", rec.NormalizedValue(places.AttrAddress))
	assert.Equal(t, "5551234567", rec.NormalizedValue(places.AttrPhone))
	assert.Equal(t, "pizza italian", rec.NormalizedValue(places.AttrCategory))
	assert.Equal(t, "123 Main Street, Springfield, IL, 62704", rec.RawValue(places.AttrAddress))

	assert.Equal(t, "joe s pizza", records[1].NormalizedValue(places.AttrName))
}

func TestProviderBSkipsMalformedLines(t *testing.T) {
	path := writeLines(t, `{"business_id":"b1","name":"Tonys","address":"1 Main St","city":"Springfield","state":"IL","postal_code":"62704"}
this is not json

{"business_id":"b2","name":"Joes","address":"2 Main St","city":"Springfield","state":"IL","postal_code":"62704"}
`)

	records, err := newLoader().ProviderB(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b1", records[0].ID)
	assert.Equal(t, "b2", records[1].ID)
}

func TestMissingInputFile(t *testing.T) {
	loader := newLoader()

	_, err := loader.ProviderA(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)

	_, err = loader.ProviderB(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
