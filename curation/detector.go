// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"fmt"
)

const (
	// DefaultRadiusKm is the proximity clustering radius (50 meters).
	DefaultRadiusKm = 0.05
	// DefaultOverlapKm is the overlapping markers threshold (2 meters).
	DefaultOverlapKm = 0.002
)

// Options holds the distance thresholds of a detection run.
type Options struct {
	RadiusKm  float64 `json:"radius_km"`
	OverlapKm float64 `json:"overlap_km"`
}

// DefaultOptions returns the 50m radius and 2m overlap thresholds.
func DefaultOptions() Options {
	return Options{
		RadiusKm:  DefaultRadiusKm,
		OverlapKm: DefaultOverlapKm,
	}
}

// Validate checks both thresholds are positive and the overlap threshold is
// strictly smaller than the clustering radius.
func (o Options) Validate() error {
	if err := validateThreshold("radius", o.RadiusKm); err != nil {
		return err
	}

	if err := validateThreshold("overlap", o.OverlapKm); err != nil {
		return err
	}

	if o.OverlapKm >= o.RadiusKm {
		return fmt.Errorf("%w: overlap (%v km) must be smaller than radius (%v km)", ErrInvalidOptions, o.OverlapKm, o.RadiusKm)
	}

	return nil
}

// Report holds the two kinds of duplicate suspicions for a region.
type Report struct {
	Region    string     `json:"region,omitempty"`
	Label     string     `json:"label,omitempty"`
	Proximity []*Cluster `json:"proximity_clusters"`
	Names     []*Cluster `json:"name_clusters"`
}

// Detect runs the whole duplicate detection over a region's hotspots:
// proximity clustering, duplicate-name clustering, and the removal of name
// clusters already explained by proximity. It never modifies its input.
func Detect(hotspots []*Hotspot, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if err := validateHotspots(hotspots); err != nil {
		return nil, err
	}

	proximity, err := ClusterByProximity(hotspots, opts.RadiusKm, opts.OverlapKm)
	if err != nil {
		return nil, fmt.Errorf("proximity clustering: %w", err)
	}

	names := ClusterByName(hotspots, opts.OverlapKm)

	return &Report{
		Proximity: proximity,
		Names:     FilterExplained(names, proximity),
	}, nil
}

// DetectRegion runs Detect over a snapshot and labels the report with the
// region.
func DetectRegion(snapshot *RegionSnapshot, opts Options) (*Report, error) {
	report, err := Detect(snapshot.Hotspots, opts)
	if err != nil {
		return nil, fmt.Errorf("detecting duplicates in %s: %w", snapshot.Code, err)
	}

	report.Region = snapshot.Code
	report.Label = snapshot.Label

	return report, nil
}
