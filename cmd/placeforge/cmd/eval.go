package cmd

import (
	"github.com/spf13/cobra"

	"github.com/placeforge/placeforge/internal/evaluate"
	"github.com/placeforge/placeforge/internal/export"
	"github.com/placeforge/placeforge/pkg/conflate"
	"github.com/placeforge/placeforge/pkg/logging"
)

var (
	evalFlags pipelineFlags
	truthPath string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the pipeline and score decisions against labeled truth",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := evalFlags.validate(); err != nil {
			return err
		}

		ref, err := evalFlags.loadRefdata()
		if err != nil {
			return err
		}

		matchResult, _, err := evalFlags.loadAndMatch(cmd.Context(), ref)
		if err != nil {
			return err
		}

		ag, resolver := conflate.DefaultAggregatorAndResolver(ref)
		resolved := conflate.ResolveAll(matchResult.Pairs, ag, resolver)

		report, err := evaluate.Evaluate(resolved, truthPath)
		if err != nil {
			return err
		}

		writer, err := export.NewWriter(evalFlags.outDir)
		if err != nil {
			return err
		}
		path, err := writer.EvalReport(report)
		if err != nil {
			return err
		}

		logging.Info().Str("report", path).Msg("Evaluation complete")
		return nil
	},
}

func init() {
	addPipelineFlags(evalCmd, &evalFlags)
	evalCmd.Flags().StringVar(&truthPath, "truth", "", "labeled truth CSV (required)")
	_ = evalCmd.MarkFlagRequired("truth")
	rootCmd.AddCommand(evalCmd)
}
