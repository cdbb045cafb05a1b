// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/jcodagnone/hotspots/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	Addr     string
	Offline  bool
	SeedFile string
}

var serveOpts = &serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the duplicate report HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

		var source curation.RegionSource

		if serveOpts.Offline {
			repo, closeDB, err := openRepository(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer closeDB()

			if serveOpts.SeedFile != "" {
				seeded, n, err := curation.SeedIfEmpty(repo, serveOpts.SeedFile)
				if err != nil {
					return fmt.Errorf("seeding database: %w", err)
				}

				if seeded {
					fmt.Printf("🌱 Seeded %d regions from %s\n", n, serveOpts.SeedFile)
				}
			}

			source = repo
		} else {
			source = newClient(metrics)
		}

		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveOpts.Addr
		}

		fmt.Println("🐦 Duplicate hotspots API starting...")
		fmt.Printf("📍 Try http://%s/api/regions/US-OH-001/duplicates\n", displayAddr(addr))
		fmt.Printf("📈 Metrics at http://%s/metrics\n", displayAddr(addr))

		return curation.NewServer(source, cfg.DetectionOptions(), metrics).Run(addr)
	},
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}

	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveOpts.Addr,
		"addr",
		":8080",
		"Address to listen on",
	)
	serveCmd.Flags().BoolVar(
		&serveOpts.Offline,
		"offline",
		false,
		"Answer from the regions stored by 'fetch' instead of the eBird API",
	)
	serveCmd.Flags().StringVar(
		&serveOpts.SeedFile,
		"seed",
		"",
		"With --offline, seed file to import when the database is empty",
	)
}
