// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

// HasOverlappingMarkers reports whether any two members with valid
// coordinates are at most overlapKm apart. Quadratic in len(members).
func HasOverlappingMarkers(members []*Hotspot, overlapKm float64) bool {
	for i, a := range members {
		if !a.HasValidPoint() {
			continue
		}

		for _, b := range members[i+1:] {
			if b.HasValidPoint() && a.Point.DistanceKm(b.Point) <= overlapKm {
				return true
			}
		}
	}

	return false
}
