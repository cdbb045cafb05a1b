// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"errors"
)

// ErrRegionNotFound is returned, wrapped, whenever the hotspots of a region
// can't be obtained. Callers must not run detection on a partial list.
var ErrRegionNotFound = errors.New("region not found")

// RegionSource provides the current hotspot list of a region.
type RegionSource interface {
	Region(ctx context.Context, code string) (*RegionSnapshot, error)
}
