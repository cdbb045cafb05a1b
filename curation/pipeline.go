// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/hotspots/observability"
)

// Analyze fetches a region from source and runs the detection over it,
// recording the run in metrics (which may be nil).
func Analyze(
	ctx context.Context,
	source RegionSource,
	code string,
	opts Options,
	metrics *observability.Metrics,
) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := source.Region(ctx, code)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	// Options are already valid, so a failure here means a malformed list.
	report, err := DetectRegion(snapshot, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegionNotFound, err)
	}

	elapsed := time.Since(start)
	metrics.ObserveDetection(elapsed, len(snapshot.Hotspots), len(report.Proximity), len(report.Names))

	for kind, clusters := range map[string][]*Cluster{"proximity": report.Proximity, "name": report.Names} {
		for _, c := range clusters {
			if c.HasOverlappingMarkers {
				metrics.ObserveOverlap(kind)
			}
		}
	}

	log.Printf("%s: %d hotspots, %d proximity clusters, %d name clusters in %v",
		snapshot.Code, len(snapshot.Hotspots), len(report.Proximity), len(report.Names), elapsed)

	return report, nil
}
