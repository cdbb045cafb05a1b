// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bruteForce(points []Point, lng, lat, radiusKm float64) []int {
	var result []int

	for i, p := range points {
		if DistanceKm(lat, lng, p.Lat, p.Lng) <= radiusKm {
			result = append(result, i)
		}
	}

	return result
}

func TestResolutionFor(t *testing.T) {
	tests := []struct {
		radiusKm float64
		want     int
	}{
		{0.05, 10},
		{0.002, 13},
		{1, 7},
		{100, 2},
		{5000, -1},
		{0, 15},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, resolutionFor(tt.radiusKm), "radius %v", tt.radiusKm)
	}
}

func TestWithinRadiusIncludesQueryPoint(t *testing.T) {
	points := []Point{
		{Lat: 40.0, Lng: -80.0},
		{Lat: 40.0001, Lng: -80.0001},
		{Lat: 41.0, Lng: -81.0},
	}

	idx, err := NewIndex(points, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 10, idx.Resolution())

	assert.Equal(t, []int{0, 1}, idx.WithinRadius(-80.0, 40.0, 0.05))
	assert.Equal(t, []int{0, 1}, idx.WithinRadius(-80.0001, 40.0001, 0.05))
	assert.Equal(t, []int{2}, idx.WithinRadius(-81.0, 41.0, 0.05))
	assert.Empty(t, idx.WithinRadius(-70.0, 10.0, 0.05))
}

func TestWithinRadiusMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// A dense patch around Cleveland plus a few far away outliers.
	points := make([]Point, 0, 600)
	for range 580 {
		points = append(points, Point{
			Lat: 41.5 + rng.Float64()*0.01,
			Lng: -81.7 + rng.Float64()*0.01,
		})
	}

	for range 20 {
		points = append(points, Point{
			Lat: rng.Float64()*170 - 85,
			Lng: rng.Float64()*360 - 180,
		})
	}

	for _, radius := range []float64{0.002, 0.05, 0.3, 2} {
		idx, err := NewIndex(points, radius)
		require.NoError(t, err)

		for i, p := range points {
			got := idx.WithinRadius(p.Lng, p.Lat, radius)
			want := bruteForce(points, p.Lng, p.Lat, radius)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("radius %v, point %d: WithinRadius mismatch (-want +got):\n%s", radius, i, diff)
			}
		}
	}
}

func TestWithinRadiusLargerThanBuildRadius(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.01}, // ~1.1km
		{Lat: 0, Lng: 0.05}, // ~5.6km
	}

	idx, err := NewIndex(points, 0.05)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, idx.WithinRadius(0, 0, 2))
	assert.Equal(t, []int{0, 1, 2}, idx.WithinRadius(0, 0, 6))
}

func TestWithinRadiusAcrossAntimeridian(t *testing.T) {
	points := []Point{
		{Lat: -16.5, Lng: 179.9999},
		{Lat: -16.5, Lng: -179.9999},
	}

	idx, err := NewIndex(points, 0.05)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, idx.WithinRadius(179.9999, -16.5, 0.05))
}

func TestLinearIndexForHugeRadius(t *testing.T) {
	points := []Point{{Lat: 0, Lng: 0}, {Lat: 10, Lng: 10}, {Lat: -60, Lng: 120}}

	idx, err := NewIndex(points, 3000)
	require.NoError(t, err)
	assert.Equal(t, -1, idx.Resolution())

	assert.Equal(t, []int{0, 1}, idx.WithinRadius(0, 0, 3000))
}

func TestNewIndexRejectsInvalidPoints(t *testing.T) {
	_, err := NewIndex([]Point{{Lat: 0, Lng: 0}, {Lat: math.NaN(), Lng: 0}}, 0.05)
	require.ErrorIs(t, err, ErrInvalidPoint)
}

func TestEmptyIndex(t *testing.T) {
	idx, err := NewIndex(nil, 0.05)
	require.NoError(t, err)
	assert.Nil(t, idx.WithinRadius(0, 0, 1))
}
