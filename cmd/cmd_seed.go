// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Stores the regions of a JSON seed file in the local database",
	Long:  `Stores the regions of a JSON seed file, as written by 'export', replacing any stored copy of the same regions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		repo, closeDB, err := openRepository(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := curation.ImportFromJSON(repo, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("🌱 Seeded %d regions from %s\n", n, args[0])

		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Writes every stored region to a JSON seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		repo, closeDB, err := openRepository(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := curation.ExportToJSON(repo, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✅ Exported %d regions to %s\n", n, args[0])

		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(exportCmd)
}
