// Package ingest loads provider exports into flat PlaceRecords. ProviderA
// ships a CSV whose attribute columns hold nested JSON encodings; ProviderB
// ships newline-delimited JSON objects. Row-level defects are logged and
// skipped, never fatal to the run.
package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/placeforge/placeforge/pkg/errors"
	"github.com/placeforge/placeforge/pkg/logging"
	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
)

// Loader parses provider files into records, normalizing attributes as it
// goes so the matcher can consume the output directly.
type Loader struct {
	norm *normalize.Normalizer
}

// NewLoader creates a Loader using the given normalizer.
func NewLoader(norm *normalize.Normalizer) *Loader {
	return &Loader{norm: norm}
}

// nestedName is ProviderA's name encoding: {"primary": "...", ...}.
type nestedName struct {
	Primary string `json:"primary"`
}

// nestedAddress is one element of ProviderA's address list.
type nestedAddress struct {
	Freeform string `json:"freeform"`
	Locality string `json:"locality"`
	Region   string `json:"region"`
	Postcode string `json:"postcode"`
}

// ProviderA reads the structured CSV export. Expected columns: place_id,
// names, categories, confidence, websites, phones, addresses (extra columns
// are ignored). Attribute columns carry JSON payloads.
func (l *Loader) ProviderA(path string) ([]*places.PlaceRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"names", "addresses"} {
		if _, ok := col[required]; !ok {
			return nil, errors.NewParseError("csv", path,
				fmt.Sprintf("missing required column %q", required), nil)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []*places.PlaceRecord
	skipped := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Warn().Str("file", path).Int("line", line).Err(err).Msg("Skipping malformed CSV row")
			skipped++
			continue
		}

		id := strings.TrimSpace(field(row, "place_id"))
		if id == "" {
			id = fmt.Sprintf("a-%d", line)
		}

		rec := &places.PlaceRecord{
			ID:         id,
			Provider:   places.ProviderA,
			Raw:        make(map[places.Attribute]string),
			Normalized: make(map[places.Attribute]string),
		}

		var name nestedName
		decodeJSON(field(row, "names"), &name)
		rec.Raw[places.AttrName] = name.Primary

		var category nestedName
		decodeJSON(field(row, "categories"), &category)
		rec.Raw[places.AttrCategory] = category.Primary

		rec.Raw[places.AttrWebsite] = firstOfList(field(row, "websites"))
		rec.Raw[places.AttrPhone] = firstOfList(field(row, "phones"))

		street, city, region, postal := firstAddress(field(row, "addresses"))
		rec.Raw[places.AttrAddress] = joinRawAddress(street, city, region, postal)

		rec.Confidence = parseConfidence(field(row, "confidence"), id)

		rec.Normalized[places.AttrName] = l.norm.Name(rec.Raw[places.AttrName])
		rec.Normalized[places.AttrAddress] = l.norm.Address(street, city, region, postal)
		rec.Normalized[places.AttrPhone] = normalize.Phone(rec.Raw[places.AttrPhone])
		rec.Normalized[places.AttrWebsite] = normalize.Domain(rec.Raw[places.AttrWebsite])
		rec.Normalized[places.AttrCategory] = normalize.Category(rec.Raw[places.AttrCategory])

		records = append(records, rec)
	}

	logging.Info().Str("file", path).Int("records", len(records)).Int("skipped", skipped).
		Msg("Loaded provider A")
	return records, nil
}

// providerBRow is one line of ProviderB's newline-delimited JSON export.
type providerBRow struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Categories string `json:"categories"`
}

// ProviderB reads the flat JSON-lines export.
func (l *Loader) ProviderB(path string) ([]*places.PlaceRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck

	var records []*places.PlaceRecord
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var row providerBRow
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			logging.Warn().Str("file", path).Int("line", line).Err(err).Msg("Skipping malformed JSON line")
			skipped++
			continue
		}

		id := strings.TrimSpace(row.BusinessID)
		if id == "" {
			id = fmt.Sprintf("b-%d", line)
		}

		rec := &places.PlaceRecord{
			ID:         id,
			Provider:   places.ProviderB,
			Raw:        make(map[places.Attribute]string),
			Normalized: make(map[places.Attribute]string),
		}

		rec.Raw[places.AttrName] = row.Name
		rec.Raw[places.AttrAddress] = joinRawAddress(row.Address, row.City, row.State, row.PostalCode)
		rec.Raw[places.AttrPhone] = row.Phone
		rec.Raw[places.AttrCategory] = row.Categories

		rec.Normalized[places.AttrName] = l.norm.Name(row.Name)
		rec.Normalized[places.AttrAddress] = l.norm.Address(row.Address, row.City, row.State, row.PostalCode)
		rec.Normalized[places.AttrPhone] = normalize.Phone(row.Phone)
		rec.Normalized[places.AttrCategory] = normalize.Category(row.Categories)

		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}

	logging.Info().Str("file", path).Int("records", len(records)).Int("skipped", skipped).
		Msg("Loaded provider B")
	return records, nil
}

// decodeJSON tolerantly unmarshals a nested payload; malformed payloads
// leave the target zero-valued.
func decodeJSON(raw string, v any) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") || strings.EqualFold(raw, "null") {
		return
	}
	_ = json.Unmarshal([]byte(raw), v)
}

// firstOfList returns the first non-blank element of a JSON string list, or
// the raw value itself when it is not a list.
func firstOfList(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return ""
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for _, item := range list {
			if strings.TrimSpace(item) != "" {
				return item
			}
		}
		return ""
	}
	if strings.HasPrefix(raw, "[") {
		return ""
	}
	return raw
}

// firstAddress returns the components of the first entry in ProviderA's
// address list.
func firstAddress(raw string) (street, city, region, postal string) {
	var list []nestedAddress
	decodeJSON(raw, &list)
	if len(list) == 0 {
		return "", "", "", ""
	}
	a := list[0]
	return a.Freeform, a.Locality, a.Region, a.Postcode
}

// joinRawAddress keeps the human-readable comma form for raw storage; the
// component count later feeds the address cascade.
func joinRawAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, ", ")
}

// parseConfidence degrades malformed scores to absent, logging the defect as
// a data-quality signal rather than failing the row.
func parseConfidence(raw, id string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Warn().Str("record_id", id).Str("confidence", raw).
			Msg("Malformed confidence score, treating as absent")
		return nil
	}
	return &v
}
