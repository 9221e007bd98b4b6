package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/placeforge/placeforge/internal/export"
	"github.com/placeforge/placeforge/internal/ingest"
	"github.com/placeforge/placeforge/pkg/errors"
	"github.com/placeforge/placeforge/pkg/linkage"
	"github.com/placeforge/placeforge/pkg/normalize"
	"github.com/placeforge/placeforge/pkg/places"
	"github.com/placeforge/placeforge/pkg/refdata"
)

// pipelineFlags holds the input/output options shared by the pipeline
// commands.
type pipelineFlags struct {
	providerA  string
	providerB  string
	refPath    string
	outDir     string
	nameThresh int
	addrThresh int
	workers    int
	noBlocking bool
}

// addPipelineFlags registers the shared flags on a command.
func addPipelineFlags(cmd *cobra.Command, f *pipelineFlags) {
	cmd.Flags().StringVar(&f.providerA, "provider-a", "", "provider A CSV export (required)")
	cmd.Flags().StringVar(&f.providerB, "provider-b", "", "provider B JSON-lines export (required)")
	cmd.Flags().StringVar(&f.refPath, "refdata", "", "reference data YAML overlay (optional)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "out", "output directory for run artifacts")
	cmd.Flags().IntVar(&f.nameThresh, "name-threshold", linkage.DefaultThreshold, "fuzzy name similarity floor (0-100)")
	cmd.Flags().IntVar(&f.addrThresh, "address-threshold", linkage.DefaultThreshold, "fuzzy address similarity floor (0-100)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "fuzzy stage worker count (0 = all CPUs)")
	cmd.Flags().BoolVar(&f.noBlocking, "no-blocking", false, "disable name-token blocking and scan the full cross product")

	_ = cmd.MarkFlagRequired("provider-a")
	_ = cmd.MarkFlagRequired("provider-b")
}

// validate rejects flag values the matcher cannot honor.
func (f *pipelineFlags) validate() error {
	if f.nameThresh < 0 || f.nameThresh > 100 {
		return errors.NewValidationError("name-threshold", f.nameThresh, "must be between 0 and 100")
	}
	if f.addrThresh < 0 || f.addrThresh > 100 {
		return errors.NewValidationError("address-threshold", f.addrThresh, "must be between 0 and 100")
	}
	return nil
}

// matcherConfig translates flags into a matcher configuration.
func (f *pipelineFlags) matcherConfig() linkage.Config {
	cfg := linkage.DefaultConfig()
	cfg.NameThreshold = f.nameThresh
	cfg.AddressThreshold = f.addrThresh
	cfg.Blocking = !f.noBlocking
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	return cfg
}

// loadRefdata returns the built-in reference data, overlaid from the YAML
// file when one was given.
func (f *pipelineFlags) loadRefdata() (*refdata.Set, error) {
	if f.refPath == "" {
		return refdata.Default(), nil
	}
	return refdata.Load(f.refPath)
}

// loadAndMatch runs ingestion and the matcher, returning everything the
// resolution and export steps need.
func (f *pipelineFlags) loadAndMatch(ctx context.Context, ref *refdata.Set) (*linkage.Result, linkage.Config, error) {
	loader := ingest.NewLoader(normalize.New(ref))

	recordsA, err := loader.ProviderA(f.providerA)
	if err != nil {
		return nil, linkage.Config{}, err
	}
	recordsB, err := loader.ProviderB(f.providerB)
	if err != nil {
		return nil, linkage.Config{}, err
	}

	cfg := f.matcherConfig()
	result, err := linkage.New(cfg).Match(ctx, recordsA, recordsB)
	if err != nil {
		return nil, linkage.Config{}, err
	}
	return result, cfg, nil
}

// startManifest begins a manifest pre-filled with the input paths.
func (f *pipelineFlags) startManifest() *export.Manifest {
	m := export.NewManifest()
	m.Inputs.ProviderA = f.providerA
	m.Inputs.ProviderB = f.providerB
	m.Inputs.RefData = f.refPath
	return m
}

// countKinds splits the pair total by stage for summary logging.
func countKinds(pairs []places.MatchedPair) (exact, fuzzy int) {
	for _, p := range pairs {
		if p.Kind == places.MatchExact {
			exact++
		} else {
			fuzzy++
		}
	}
	return exact, fuzzy
}
