// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/jcodagnone/hotspots/ebird"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type fetchOptions struct {
	MaxAge time.Duration
	Force  bool
}

var fetchOpts = &fetchOptions{}

// FetchMetrics tracks statistics about a fetch run.
type FetchMetrics struct {
	Fetched  int
	Skipped  int
	Failed   int
	Hotspots int
}

// normalizeCodes upper-cases the region codes and drops repeated ones.
func normalizeCodes(args []string) []string {
	codes := make([]string, 0, len(args))

	for _, arg := range args {
		code := ebird.NormalizeRegionCode(arg)
		if !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}

	return codes
}

// fetchRegions downloads every region not fresher than maxAge from source
// and stores it in repo.
func fetchRegions(
	ctx context.Context,
	source curation.RegionSource,
	repo curation.HotspotRepository,
	codes []string,
	maxAge time.Duration,
	maxProcs int,
) (*FetchMetrics, error) {
	metrics := &FetchMetrics{}

	var pending []string

	for _, code := range codes {
		fresh, err := repo.IsFresh(code, maxAge)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", code, err)
		}

		if fresh {
			log.Printf("Skipping %s, stored less than %v ago", code, maxAge)

			metrics.Skipped++

			continue
		}

		pending = append(pending, code)
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(pending),
			progressbar.OptionSetDescription("Fetching regions"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	semaphore := make(chan struct{}, max(maxProcs, 1))

	for _, code := range pending {
		wg.Add(1)

		go func(code string) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			snapshot, err := source.Region(ctx, code)

			// DuckDB writes are serialized.
			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				err = repo.SaveRegion(snapshot)
			}

			if err != nil {
				metrics.Failed++
				errs = append(errs, fmt.Errorf("fetching %s: %w", code, err))

				log.Printf("Failed to fetch %s: %v", code, err)
			} else {
				metrics.Fetched++
				metrics.Hotspots += len(snapshot.Hotspots)

				if bar == nil {
					log.Printf("Fetched %s (%d hotspots)", code, len(snapshot.Hotspots))
				}
			}

			if bar == nil {
				return
			}

			if err := bar.Add(1); err != nil {
				errs = append(errs, fmt.Errorf("updating progress bar for %s: %w", code, err))
			}
		}(code)
	}

	wg.Wait()

	log.Printf(
		"Fetch complete - %d regions stored with %d hotspots, %d fresh, %d failed",
		metrics.Fetched,
		metrics.Hotspots,
		metrics.Skipped,
		metrics.Failed,
	)

	return metrics, errors.Join(errs...)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <region>...",
	Short: "Downloads the hotspots of one or more regions into the local database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openRepository(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer closeDB()

		maxAge := cfg.MaxAge()
		if cmd.Flags().Changed("max-age") {
			maxAge = fetchOpts.MaxAge
		}

		if fetchOpts.Force {
			maxAge = 0
		}

		_, err = fetchRegions(cmd.Context(), newClient(nil), repo, normalizeCodes(args), maxAge, maxProcs())

		return err
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().DurationVar(
		&fetchOpts.MaxAge,
		"max-age",
		7*24*time.Hour,
		"Regions stored more recently than this are not downloaded again",
	)
	fetchCmd.Flags().BoolVar(
		&fetchOpts.Force,
		"force",
		false,
		"Download every region, even fresh ones",
	)
}
