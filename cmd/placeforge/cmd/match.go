package cmd

import (
	"github.com/spf13/cobra"

	"github.com/placeforge/placeforge/internal/export"
	"github.com/placeforge/placeforge/pkg/logging"
)

var matchFlags pipelineFlags

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match records across providers without resolving attributes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := matchFlags.validate(); err != nil {
			return err
		}

		ref, err := matchFlags.loadRefdata()
		if err != nil {
			return err
		}

		result, cfg, err := matchFlags.loadAndMatch(cmd.Context(), ref)
		if err != nil {
			return err
		}

		writer, err := export.NewWriter(matchFlags.outDir)
		if err != nil {
			return err
		}
		manifest := matchFlags.startManifest()
		manifest.RecordMatching(cfg, result)

		pairsPath, err := writer.MatchedPairs(result)
		if err != nil {
			return err
		}
		auditPath, err := writer.MatchAudit(result)
		if err != nil {
			return err
		}
		manifest.Artifacts = append(manifest.Artifacts, pairsPath, auditPath)
		if _, err := writer.WriteManifest(manifest); err != nil {
			return err
		}

		exact, fuzzy := countKinds(result.Pairs)
		logging.Info().
			Int("exact", exact).
			Int("fuzzy", fuzzy).
			Int64("comparisons", result.Comparisons).
			Str("out", matchFlags.outDir).
			Msg("Matching complete")
		return nil
	},
}

func init() {
	addPipelineFlags(matchCmd, &matchFlags)
	rootCmd.AddCommand(matchCmd)
}
