// Package evaluate scores conflation decisions against a labeled truth set.
// Truth is a CSV of (pair_key, attribute, expected) rows where expected holds
// the canonical value a human judged correct for that attribute.
package evaluate

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/placeforge/placeforge/pkg/conflate"
	"github.com/placeforge/placeforge/pkg/errors"
	"github.com/placeforge/placeforge/pkg/logging"
	"github.com/placeforge/placeforge/pkg/places"
)

// Metrics holds per-attribute counts.
type Metrics struct {
	Labeled int // truth rows seen for this attribute
	Correct int // resolved value matched the label
	Missing int // truth rows whose pair was not in the run output
}

// Accuracy returns Correct/Labeled, or zero when nothing was labeled.
func (m *Metrics) Accuracy() float64 {
	if m.Labeled == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Labeled)
}

// Report is the evaluation outcome across all attributes.
type Report struct {
	Attributes map[places.Attribute]*Metrics
}

// truthRow is one labeled judgment.
type truthRow struct {
	pairKey  string
	attr     places.Attribute
	expected string
}

// Evaluate scores a conflation result against the truth file. Unknown
// attributes and blank expectations are skipped with a warning; a truth row
// whose pair is absent from the run counts as missing, not wrong.
func Evaluate(result *conflate.Result, truthPath string) (*Report, error) {
	truth, err := loadTruth(truthPath)
	if err != nil {
		return nil, err
	}

	decisions := make(map[string]places.ResolvedAttribute)
	for _, res := range result.Resolutions {
		for attr, decision := range res.Attributes {
			decisions[res.Pair.Key()+"\x00"+string(attr)] = decision
		}
	}

	report := &Report{Attributes: make(map[places.Attribute]*Metrics)}
	for _, attr := range places.Attributes() {
		report.Attributes[attr] = &Metrics{}
	}

	for _, row := range truth {
		m := report.Attributes[row.attr]
		decision, ok := decisions[row.pairKey+"\x00"+string(row.attr)]
		if !ok {
			m.Missing++
			continue
		}
		m.Labeled++
		if !decision.Unresolved && decision.Value == row.expected {
			m.Correct++
		}
	}

	for _, attr := range places.Attributes() {
		m := report.Attributes[attr]
		if m.Labeled == 0 && m.Missing == 0 {
			continue
		}
		logging.Info().
			Str("attribute", string(attr)).
			Int("labeled", m.Labeled).
			Int("correct", m.Correct).
			Int("missing", m.Missing).
			Float64("accuracy", m.Accuracy()).
			Msg("Evaluation")
	}

	return report, nil
}

// loadTruth parses the truth CSV. Expected columns: pair_key, attribute,
// expected. Header order is free; extra columns are ignored.
func loadTruth(path string) ([]truthRow, error) {
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
	for _, required := range []string{"pair_key", "attribute", "expected"} {
		if _, ok := col[required]; !ok {
			return nil, errors.NewParseError("csv", path, "missing required column "+required, nil)
		}
	}

	known := make(map[places.Attribute]bool)
	for _, attr := range places.Attributes() {
		known[attr] = true
	}

	var rows []truthRow
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Warn().Str("file", path).Int("line", line).Err(err).Msg("Skipping malformed truth row")
			continue
		}
		get := func(name string) string {
			i := col[name]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		attr := places.Attribute(strings.ToLower(get("attribute")))
		if !known[attr] {
			logging.Warn().Str("file", path).Int("line", line).Str("attribute", string(attr)).
				Msg("Skipping truth row with unknown attribute")
			continue
		}
		rows = append(rows, truthRow{
			pairKey:  get("pair_key"),
			attr:     attr,
			expected: get("expected"),
		})
	}

	return rows, nil
}
