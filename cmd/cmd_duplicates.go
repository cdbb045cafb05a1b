// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/spf13/cobra"
)

type duplicatesOptions struct {
	Offline   bool
	RadiusKm  float64
	OverlapKm float64
	JSON      bool
}

var dupOptions = &duplicatesOptions{}

// analyzeRegions runs the detection over every region, at most maxProcs at
// once. Reports keep the order of codes.
func analyzeRegions(
	ctx context.Context,
	source curation.RegionSource,
	codes []string,
	opts curation.Options,
	maxProcs int,
) ([]*curation.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	reports := make([]*curation.Report, len(codes))
	errs := make([]error, len(codes))

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, max(maxProcs, 1))

	for i, code := range codes {
		wg.Add(1)

		go func(i int, code string) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			reports[i], errs[i] = curation.Analyze(ctx, source, code, opts, nil)
			if errs[i] != nil {
				errs[i] = fmt.Errorf("analyzing %s: %w", code, errs[i])
			}
		}(i, code)
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return reports, nil
}

// detectionOptions merges the configured thresholds with the flags.
func detectionOptions(cmd *cobra.Command) curation.Options {
	opts := cfg.DetectionOptions()

	if cmd.Flags().Changed("radius-km") {
		opts.RadiusKm = dupOptions.RadiusKm
	}

	if cmd.Flags().Changed("overlap-km") {
		opts.OverlapKm = dupOptions.OverlapKm
	}

	return opts
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <region>...",
	Short: "Reports suspected duplicate hotspots of one or more regions",
	Long: `Reports suspected duplicate hotspots of one or more eBird regions (US,
US-OH, US-OH-001). Hotspots are downloaded from the eBird API unless --offline
is given, in which case the copy stored by 'fetch' is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := detectionOptions(cmd)

		var source curation.RegionSource

		if dupOptions.Offline {
			repo, closeDB, err := openRepository(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer closeDB()

			source = repo
		} else {
			source = newClient(nil)
		}

		reports, err := analyzeRegions(cmd.Context(), source, normalizeCodes(args), opts, maxProcs())
		if err != nil {
			return err
		}

		return writeReports(os.Stdout, reports, dupOptions.JSON, opts)
	},
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
	duplicatesCmd.Flags().BoolVar(
		&dupOptions.Offline,
		"offline",
		false,
		"Use the regions stored by 'fetch' instead of the eBird API",
	)
	duplicatesCmd.Flags().Float64Var(
		&dupOptions.RadiusKm,
		"radius-km",
		curation.DefaultRadiusKm,
		"Hotspots within this distance are chained into a proximity cluster",
	)
	duplicatesCmd.Flags().Float64Var(
		&dupOptions.OverlapKm,
		"overlap-km",
		curation.DefaultOverlapKm,
		"Hotspots within this distance are flagged as overlapping markers",
	)
	duplicatesCmd.Flags().BoolVar(
		&dupOptions.JSON,
		"json",
		false,
		"Print the reports as a JSON array",
	)
}
