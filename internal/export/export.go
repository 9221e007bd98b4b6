// Package export writes the pipeline's output artifacts: the golden
// attribute table, the per-decision trace log, the match audit, and a YAML
// run manifest tying them together.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/placeforge/placeforge/internal/evaluate"
	"github.com/placeforge/placeforge/pkg/conflate"
	"github.com/placeforge/placeforge/pkg/errors"
	"github.com/placeforge/placeforge/pkg/linkage"
	"github.com/placeforge/placeforge/pkg/logging"
	"github.com/placeforge/placeforge/pkg/places"
)

// Writer emits run artifacts into a single output directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapIO("mkdir", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// GoldenTable writes one row per matched place with the winning value, its
// source, and the deciding rule for every attribute.
func (w *Writer) GoldenTable(result *conflate.Result) (string, error) {
	path := filepath.Join(w.dir, "golden_places.csv")

	header := []string{"pair_key", "record_a", "record_b", "match_kind", "name_score", "address_score"}
	for _, attr := range places.Attributes() {
		header = append(header,
			string(attr),
			string(attr)+"_source",
			string(attr)+"_rule",
		)
	}

	rows := make([][]string, 0, len(result.Resolutions))
	for _, res := range result.Resolutions {
		row := []string{
			res.Pair.Key(),
			res.Pair.A.ID,
			res.Pair.B.ID,
			string(res.Pair.Kind),
			fmt.Sprint(res.Pair.NameScore),
			fmt.Sprint(res.Pair.AddressScore),
		}
		for _, attr := range places.Attributes() {
			decision := res.Attributes[attr]
			if decision.Unresolved {
				row = append(row, "", "", conflate.UnresolvedTrace)
				continue
			}
			row = append(row, decision.Value, string(decision.Provider), decidingRule(decision.Trace))
		}
		rows = append(rows, row)
	}

	return path, w.writeCSV(path, header, rows)
}

// DecisionLog writes every (pair, attribute) decision with its full trace,
// one rule evaluation path per row.
func (w *Writer) DecisionLog(result *conflate.Result) (string, error) {
	path := filepath.Join(w.dir, "decision_log.csv")

	header := []string{"pair_key", "attribute", "value", "source", "unresolved", "trace"}
	var rows [][]string
	for _, res := range result.Resolutions {
		for _, attr := range places.Attributes() {
			decision := res.Attributes[attr]
			rows = append(rows, []string{
				decision.PairKey,
				string(attr),
				decision.Value,
				string(decision.Provider),
				fmt.Sprint(decision.Unresolved),
				strings.Join(decision.Trace, ";"),
			})
		}
	}

	return path, w.writeCSV(path, header, rows)
}

// MatchedPairs writes the final 1:1 pair set with stage and scores.
func (w *Writer) MatchedPairs(result *linkage.Result) (string, error) {
	path := filepath.Join(w.dir, "matched_pairs.csv")

	header := []string{"pair_key", "record_a", "record_b", "match_kind", "name_score", "address_score"}
	rows := make([][]string, 0, len(result.Pairs))
	for _, p := range result.Pairs {
		rows = append(rows, []string{
			p.Key(),
			p.A.ID,
			p.B.ID,
			string(p.Kind),
			fmt.Sprint(p.NameScore),
			fmt.Sprint(p.AddressScore),
		})
	}

	return path, w.writeCSV(path, header, rows)
}

// MatchAudit writes the records that did not end up in a pair, with the
// reason: excluded before matching or unmatched after both stages.
func (w *Writer) MatchAudit(result *linkage.Result) (string, error) {
	path := filepath.Join(w.dir, "match_audit.csv")

	header := []string{"record_id", "provider", "status", "reason", "name", "address"}
	var rows [][]string
	add := func(rec *places.PlaceRecord, status, reason string) {
		rows = append(rows, []string{
			rec.ID,
			string(rec.Provider),
			status,
			reason,
			rec.RawValue(places.AttrName),
			rec.RawValue(places.AttrAddress),
		})
	}
	for _, ex := range result.Excluded {
		add(ex.Record, "excluded", ex.Reason)
	}
	for _, rec := range result.UnmatchedA {
		add(rec, "unmatched", "no counterpart above thresholds")
	}
	for _, rec := range result.UnmatchedB {
		add(rec, "unmatched", "no counterpart above thresholds")
	}

	return path, w.writeCSV(path, header, rows)
}

// EvalReport writes per-attribute accuracy against labeled truth.
func (w *Writer) EvalReport(report *evaluate.Report) (string, error) {
	path := filepath.Join(w.dir, "eval_report.csv")

	header := []string{"attribute", "labeled", "correct", "accuracy"}
	var rows [][]string
	for _, attr := range places.Attributes() {
		m, ok := report.Attributes[attr]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			string(attr),
			fmt.Sprint(m.Labeled),
			fmt.Sprint(m.Correct),
			fmt.Sprintf("%.4f", m.Accuracy()),
		})
	}

	return path, w.writeCSV(path, header, rows)
}

// Manifest is the YAML summary of one pipeline run.
type Manifest struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`

	Inputs struct {
		ProviderA string `yaml:"provider_a"`
		ProviderB string `yaml:"provider_b"`
		RefData   string `yaml:"refdata,omitempty"`
	} `yaml:"inputs"`

	Matching struct {
		NameThreshold    int   `yaml:"name_threshold"`
		AddressThreshold int   `yaml:"address_threshold"`
		Blocking         bool  `yaml:"blocking"`
		ExactPairs       int   `yaml:"exact_pairs"`
		FuzzyPairs       int   `yaml:"fuzzy_pairs"`
		FuzzyCandidates  int   `yaml:"fuzzy_candidates"`
		Comparisons      int64 `yaml:"comparisons"`
		Excluded         int   `yaml:"excluded"`
		UnmatchedA       int   `yaml:"unmatched_a"`
		UnmatchedB       int   `yaml:"unmatched_b"`
	} `yaml:"matching"`

	Conflation map[string]ManifestAttrStats `yaml:"conflation"`

	Artifacts []string `yaml:"artifacts"`
}

// ManifestAttrStats mirrors conflate.AttributeStats in the manifest.
type ManifestAttrStats struct {
	WonByA     int `yaml:"won_by_provider_a"`
	WonByB     int `yaml:"won_by_provider_b"`
	Conflicts  int `yaml:"conflicts"`
	Unresolved int `yaml:"unresolved"`
}

// NewManifest starts a manifest for a fresh run.
func NewManifest() *Manifest {
	return &Manifest{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		Conflation: make(map[string]ManifestAttrStats),
	}
}

// RecordMatching copies matcher configuration and outcome into the manifest.
func (m *Manifest) RecordMatching(cfg linkage.Config, result *linkage.Result) {
	exact, fuzzy := 0, 0
	for _, p := range result.Pairs {
		if p.Kind == places.MatchExact {
			exact++
		} else {
			fuzzy++
		}
	}
	m.Matching.NameThreshold = cfg.NameThreshold
	m.Matching.AddressThreshold = cfg.AddressThreshold
	m.Matching.Blocking = cfg.Blocking
	m.Matching.ExactPairs = exact
	m.Matching.FuzzyPairs = fuzzy
	m.Matching.FuzzyCandidates = result.FuzzyCandidates
	m.Matching.Comparisons = result.Comparisons
	m.Matching.Excluded = len(result.Excluded)
	m.Matching.UnmatchedA = len(result.UnmatchedA)
	m.Matching.UnmatchedB = len(result.UnmatchedB)
}

// RecordConflation copies per-attribute decision stats into the manifest.
func (m *Manifest) RecordConflation(result *conflate.Result) {
	for attr, stats := range result.Stats {
		m.Conflation[string(attr)] = ManifestAttrStats{
			WonByA:     stats.WonByA,
			WonByB:     stats.WonByB,
			Conflicts:  stats.Conflicts,
			Unresolved: stats.Unresolved,
		}
	}
}

// WriteManifest finalizes timestamps and writes the manifest YAML.
func (w *Writer) WriteManifest(m *Manifest) (string, error) {
	path := filepath.Join(w.dir, "run_manifest.yaml")

	m.FinishedAt = time.Now().UTC()
	sort.Strings(m.Artifacts)

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.WrapIO("write", path, err)
	}

	logging.Info().Str("run_id", m.RunID).Str("path", path).Msg("Wrote run manifest")
	return path, nil
}

// writeCSV writes a header plus rows, failing atomically per file.
func (w *Writer) writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path) //nolint:gosec // path is under the run output dir
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close() //nolint:errcheck

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return errors.WrapIO("write", path, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapIO("flush", path, err)
	}

	logging.Debug().Str("path", path).Int("rows", len(rows)).Msg("Wrote CSV artifact")
	return nil
}

// decidingRule extracts the final (deciding) trace entry's rule name.
func decidingRule(trace []string) string {
	if len(trace) == 0 {
		return ""
	}
	last := trace[len(trace)-1]
	if i := strings.IndexByte(last, '='); i >= 0 {
		return last[:i]
	}
	return last
}
