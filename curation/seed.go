// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// SeedVersion is the current seed file format.
const SeedVersion = "1.0"

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version     string            `json:"version"`
	LastUpdated time.Time         `json:"last_updated"`
	Regions     []*RegionSnapshot `json:"regions"`
}

// ExportToJSON writes every stored region to a JSON file.
func ExportToJSON(repo HotspotRepository, filepath string) (int, error) {
	summaries, err := repo.ListRegions()
	if err != nil {
		return 0, fmt.Errorf("listing regions: %w", err)
	}

	seed := &SeedData{
		Version:     SeedVersion,
		LastUpdated: time.Now().UTC(),
		Regions:     make([]*RegionSnapshot, 0, len(summaries)),
	}

	for _, s := range summaries {
		snapshot, err := repo.GetRegion(s.Code)
		if err != nil {
			return 0, fmt.Errorf("reading region %s: %w", s.Code, err)
		}

		seed.Regions = append(seed.Regions, snapshot)
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(seed.Regions), nil
}

// ImportFromJSON stores the regions of a seed file, replacing any stored
// copy.
func ImportFromJSON(repo HotspotRepository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	if seed.Version != SeedVersion {
		return 0, fmt.Errorf("unsupported seed version %q", seed.Version)
	}

	imported := 0

	for _, snapshot := range seed.Regions {
		if snapshot == nil || snapshot.Code == "" {
			return imported, errors.New("seed region without code")
		}

		if err := repo.SaveRegion(snapshot); err != nil {
			return imported, fmt.Errorf("saving region %s: %w", snapshot.Code, err)
		}

		imported++
	}

	return imported, nil
}

// SeedIfEmpty imports filepath when no region is stored yet. A missing seed
// file is not an error.
func SeedIfEmpty(repo HotspotRepository, filepath string) (bool, int, error) {
	summaries, err := repo.ListRegions()
	if err != nil {
		return false, 0, fmt.Errorf("listing regions: %w", err)
	}

	if len(summaries) > 0 {
		return false, len(summaries), nil
	}

	if _, err := os.Stat(filepath); errors.Is(err, fs.ErrNotExist) {
		return false, 0, nil
	}

	imported, err := ImportFromJSON(repo, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
