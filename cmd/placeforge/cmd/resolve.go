package cmd

import (
	"github.com/spf13/cobra"

	"github.com/placeforge/placeforge/internal/export"
	"github.com/placeforge/placeforge/pkg/conflate"
	"github.com/placeforge/placeforge/pkg/logging"
	"github.com/placeforge/placeforge/pkg/places"
)

var resolveFlags pipelineFlags

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Match and resolve attributes into the golden table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := resolveFlags.validate(); err != nil {
			return err
		}

		ref, err := resolveFlags.loadRefdata()
		if err != nil {
			return err
		}

		matchResult, _, err := resolveFlags.loadAndMatch(cmd.Context(), ref)
		if err != nil {
			return err
		}

		ag, resolver := conflate.DefaultAggregatorAndResolver(ref)
		resolved := conflate.ResolveAll(matchResult.Pairs, ag, resolver)

		writer, err := export.NewWriter(resolveFlags.outDir)
		if err != nil {
			return err
		}
		if _, err := writer.GoldenTable(resolved); err != nil {
			return err
		}
		if _, err := writer.DecisionLog(resolved); err != nil {
			return err
		}

		unresolved := 0
		for _, stats := range resolved.Stats {
			unresolved += stats.Unresolved
		}
		logging.Info().
			Int("golden_records", len(resolved.Resolutions)).
			Int("attributes", len(places.Attributes())).
			Int("unresolved", unresolved).
			Str("out", resolveFlags.outDir).
			Msg("Resolution complete")
		return nil
	},
}

func init() {
	addPipelineFlags(resolveCmd, &resolveFlags)
	rootCmd.AddCommand(resolveCmd)
}
