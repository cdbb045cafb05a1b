// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/uber/h3-go/v4"
)

// ErrInvalidPoint is returned when an index is built over a point that
// fails Point.Valid.
var ErrInvalidPoint = errors.New("spatial: invalid point")

// Average hexagon edge length in kilometers for each H3 resolution.
var h3EdgeLengthKm = [...]float64{
	1281.256011,
	483.0568391,
	182.5129565,
	68.97922179,
	26.07175968,
	9.854090990,
	3.724532667,
	1.406475763,
	0.531414010,
	0.200786148,
	0.075863783,
	0.028663897,
	0.010830188,
	0.004092010,
	0.001546100,
	0.000584169,
}

// Cell sizes vary across the globe; a neighbor ring is assumed to span at
// least this fraction of the average edge length.
const minRingSpanFactor = 1.0

// Index is a read-only point index answering radius queries. Points are
// bucketed by H3 cell at a resolution chosen from the radius the index was
// built for, so a query only inspects a small disk of cells around the
// query point.
type Index struct {
	points     []Point
	resolution int
	buckets    map[h3.Cell][]int
	linear     bool
}

// NewIndex builds an index over points, tuned for queries of about
// radiusKm. Indices returned by WithinRadius refer to positions in points.
func NewIndex(points []Point, radiusKm float64) (*Index, error) {
	idx := &Index{
		points:     points,
		resolution: resolutionFor(radiusKm),
	}

	for i, p := range points {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %s at position %d", ErrInvalidPoint, p, i)
		}
	}

	if idx.resolution < 0 {
		idx.linear = true

		return idx, nil
	}

	idx.buckets = make(map[h3.Cell][]int)

	for i, p := range points {
		cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), idx.resolution)
		if err != nil {
			return nil, fmt.Errorf("error converting to h3 cell at res %d: %w", idx.resolution, err)
		}

		idx.buckets[cell] = append(idx.buckets[cell], i)
	}

	return idx, nil
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return len(idx.points)
}

// Resolution returns the H3 resolution used for bucketing, or -1 when the
// index degrades to a linear scan.
func (idx *Index) Resolution() int {
	if idx.linear {
		return -1
	}

	return idx.resolution
}

// WithinRadius returns, in ascending order, the positions of all indexed
// points whose distance to (lat, lng) is at most radiusKm. An indexed point
// located at the query coordinates is part of its own result.
func (idx *Index) WithinRadius(lng, lat, radiusKm float64) []int {
	if radiusKm < 0 || len(idx.points) == 0 {
		return nil
	}

	if idx.linear {
		return idx.scan(lng, lat, radiusKm)
	}

	k := ringsFor(radiusKm, idx.resolution)
	if k < 0 {
		return idx.scan(lng, lat, radiusKm)
	}

	origin, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), idx.resolution)
	if err != nil {
		return idx.scan(lng, lat, radiusKm)
	}

	disk, err := h3.GridDisk(origin, k)
	if err != nil {
		return idx.scan(lng, lat, radiusKm)
	}

	var result []int

	for _, cell := range disk {
		for _, i := range idx.buckets[cell] {
			p := idx.points[i]
			if DistanceKm(lat, lng, p.Lat, p.Lng) <= radiusKm {
				result = append(result, i)
			}
		}
	}

	slices.Sort(result)

	return result
}

func (idx *Index) scan(lng, lat, radiusKm float64) []int {
	var result []int

	for i, p := range idx.points {
		if DistanceKm(lat, lng, p.Lat, p.Lng) <= radiusKm {
			result = append(result, i)
		}
	}

	return result
}

// resolutionFor picks the finest resolution whose average edge is at least
// radiusKm, or -1 when even the coarsest cells are smaller.
func resolutionFor(radiusKm float64) int {
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		return len(h3EdgeLengthKm) - 1
	}

	for res := len(h3EdgeLengthKm) - 1; res >= 0; res-- {
		if h3EdgeLengthKm[res] >= radiusKm {
			return res
		}
	}

	return -1
}

// ringsFor returns how many rings around the origin cell cover radiusKm at
// the given resolution. Two rings of margin absorb the offset of the query
// inside its own cell and the size variance of cells over the globe.
func ringsFor(radiusKm float64, res int) int {
	if math.IsInf(radiusKm, 0) || math.IsNaN(radiusKm) {
		return -1
	}

	span := h3EdgeLengthKm[res] * minRingSpanFactor

	k := int(math.Ceil(radiusKm/span)) + 2
	if k > 64 {
		return -1
	}

	return k
}
