// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/hotspots/config"
	"github.com/jcodagnone/hotspots/curation"
	"github.com/jcodagnone/hotspots/ebird"
	"github.com/jcodagnone/hotspots/observability"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	ConfigPath    string
	DBPath        string
	TraceHTTP     bool
	TraceHTTPBody bool
	MaxProcs      int
}

var rootOptions = &globalOptions{}

// cfg is replaced by the loaded configuration before any command runs.
var cfg = defaultConfig()

func defaultConfig() *config.Config {
	c := config.Default()

	return &c
}

var rootCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "finds suspected duplicate birding hotspots",
	Long: `
hotspots downloads the hotspot directory of eBird regions and reports groups of
hotspots that probably describe the same place: hotspots chained within a small
radius of each other, and hotspots sharing a name inside the same county, state
or country.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, path, exists, err := config.Load(rootOptions.ConfigPath)
		if err != nil {
			return err
		}

		if exists {
			log.Printf("Using configuration %s", path)
		}

		if cmd.Flags().Changed("db-path") {
			loaded.Storage.DBPath = rootOptions.DBPath
		}

		cfg = loaded

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.ConfigPath,
		"config",
		"",
		"Configuration file. Defaults to ./hotspots.toml or ~/.config/hotspots/config.toml",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.DBPath,
		"db-path",
		config.Default().Storage.DBPath,
		"DuckDB database file where regions are stored",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.TraceHTTP,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.TraceHTTPBody,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
	rootCmd.PersistentFlags().IntVar(
		&rootOptions.MaxProcs,
		"max-procs",
		0,
		"Max number of regions processed at once. Defaults to the number of CPUs",
	)
}

func maxProcs() int {
	if rootOptions.MaxProcs > 0 {
		return rootOptions.MaxProcs
	}

	return runtime.NumCPU()
}

// openRepository opens (creating it if needed) the region database.
func openRepository(path string) (curation.HotspotRepository, func() error, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := curation.NewHotspotRepository(db, nil)
	if err := repo.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, db.Close, nil
}

// newClient builds the provider client from the configuration and flags.
func newClient(metrics *observability.Metrics) *ebird.Client {
	if cfg.EBird.APIKey == "" {
		log.Printf("⚠️ %s is not set, the eBird API will reject the requests", config.EnvAPIKey)
	}

	options := cfg.ClientOptions()
	options.UserAgent = fmt.Sprintf("hotspots/%s (+https://github.com/jcodagnone/hotspots)", Version)
	if cfg.EBird.UserAgent != "" {
		options.UserAgent = cfg.EBird.UserAgent
	}

	options.EnableHTTPTrace = rootOptions.TraceHTTP || rootOptions.TraceHTTPBody
	options.EnableHTTPBodyTrace = rootOptions.TraceHTTPBody
	options.Metrics = metrics

	return ebird.NewClient(options)
}
