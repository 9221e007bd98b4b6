package cmd

import (
	"github.com/spf13/cobra"

	"github.com/placeforge/placeforge/internal/export"
	"github.com/placeforge/placeforge/pkg/conflate"
	"github.com/placeforge/placeforge/pkg/logging"
)

var runFlags pipelineFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: ingest, match, resolve, export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := runFlags.validate(); err != nil {
			return err
		}

		ref, err := runFlags.loadRefdata()
		if err != nil {
			return err
		}

		manifest := runFlags.startManifest()

		matchResult, cfg, err := runFlags.loadAndMatch(cmd.Context(), ref)
		if err != nil {
			return err
		}
		manifest.RecordMatching(cfg, matchResult)

		ag, resolver := conflate.DefaultAggregatorAndResolver(ref)
		resolved := conflate.ResolveAll(matchResult.Pairs, ag, resolver)
		manifest.RecordConflation(resolved)

		writer, err := export.NewWriter(runFlags.outDir)
		if err != nil {
			return err
		}

		for _, write := range []func() (string, error){
			func() (string, error) { return writer.GoldenTable(resolved) },
			func() (string, error) { return writer.DecisionLog(resolved) },
			func() (string, error) { return writer.MatchedPairs(matchResult) },
			func() (string, error) { return writer.MatchAudit(matchResult) },
		} {
			path, err := write()
			if err != nil {
				return err
			}
			manifest.Artifacts = append(manifest.Artifacts, path)
		}

		if _, err := writer.WriteManifest(manifest); err != nil {
			return err
		}

		exact, fuzzy := countKinds(matchResult.Pairs)
		logging.Info().
			Str("run_id", manifest.RunID).
			Int("exact", exact).
			Int("fuzzy", fuzzy).
			Int("golden_records", len(resolved.Resolutions)).
			Str("out", runFlags.outDir).
			Msg("Pipeline complete")
		return nil
	},
}

func init() {
	addPipelineFlags(runCmd, &runFlags)
	rootCmd.AddCommand(runCmd)
}
