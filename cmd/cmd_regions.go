// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/spf13/cobra"
)

// filterRegions keeps the regions whose code or label contains filter,
// ignoring case and accents.
func filterRegions(regions []*curation.RegionSummary, filter string) []*curation.RegionSummary {
	var matched []*curation.RegionSummary

	for _, r := range regions {
		if textutils.ContainsFolded(r.Code, filter) || textutils.ContainsFolded(r.Label, filter) {
			matched = append(matched, r)
		}
	}

	return matched
}

func writeRegions(w io.Writer, regions []*curation.RegionSummary) error {
	if len(regions) == 0 {
		_, err := fmt.Fprintln(w, "No regions stored. Run 'hotspots fetch <region>' first.")

		return err
	}

	rows := make([][]string, 0, len(regions))

	var total int64

	for _, r := range regions {
		rows = append(rows, []string{
			r.Code,
			r.Label,
			textutils.FormatInt(int64(r.Hotspots)),
			r.FetchedAt.Local().Format("2006-01-02 15:04"),
		})
		total += int64(r.Hotspots)
	}

	rows = append(rows, []string{"", "Total", textutils.FormatInt(total), ""})

	_, err := fmt.Fprintln(w, renderTable(
		[]string{"Code", "Region", "Hotspots", "Fetched"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	return err
}

var regionsCmd = &cobra.Command{
	Use:   "regions [filter]",
	Short: "Lists the regions stored in the local database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		repo, closeDB, err := openRepository(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer closeDB()

		regions, err := repo.ListRegions()
		if err != nil {
			return fmt.Errorf("listing regions: %w", err)
		}

		if len(args) > 0 {
			regions = filterRegions(regions, args[0])
		}

		return writeRegions(os.Stdout, regions)
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
