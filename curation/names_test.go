// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"City Park", "city park"},
		{" city PARK ", "city park"},
		{"\tLakeview Park\n", "lakeview park"},
		{"   ", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeName(tc.input))
		})
	}
}

func TestScopeKey(t *testing.T) {
	tests := []struct {
		name    string
		hotspot Hotspot
		want    string
	}{
		{"county wins", Hotspot{CountryCode: "US", StateCode: "US-OH", CountyCode: "US-OH-001"}, "US-OH-001"},
		{"state when no county", Hotspot{CountryCode: "US", StateCode: "US-OH"}, "US-OH"},
		{"blank county falls back", Hotspot{CountryCode: "US", StateCode: " US-OH ", CountyCode: "  "}, "US-OH"},
		{"country only", Hotspot{CountryCode: "UY"}, "UY"},
		{"no scope", Hotspot{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hotspot.ScopeKey())
		})
	}
}

func TestClusterByNameNormalizes(t *testing.T) {
	hotspots := []*Hotspot{
		newHotspot("L1", "City Park", 40.0, -80.0),
		newHotspot("L2", " city PARK ", 40.1, -80.1),
		newHotspot("L3", "Mill Pond", 40.2, -80.2),
	}

	clusters := ClusterByName(hotspots, 0.002)
	require.Len(t, clusters, 1)
	assert.Equal(t, "city park", clusters[0].Key)
	assert.Equal(t, []string{"L1", "L2"}, clusters[0].IDs())
	assert.False(t, clusters[0].HasOverlappingMarkers)
}

func TestClusterByNameIsScoped(t *testing.T) {
	a := newHotspot("L1", "City Park", 40.0, -80.0)
	b := newHotspot("L2", "City Park", 40.0, -80.0)
	b.CountyCode = "US-OH-003"

	assert.Empty(t, ClusterByName([]*Hotspot{a, b}, 0.002))

	// Same state but one of them lacks a county: different scope keys too.
	b.CountyCode = ""
	assert.Empty(t, ClusterByName([]*Hotspot{a, b}, 0.002))
}

func TestClusterByNameWithoutCoordinates(t *testing.T) {
	hotspots := []*Hotspot{
		{ID: "L1", Name: "Heron Rookery", StateCode: "US-OH"},
		{ID: "L2", Name: "Heron rookery", StateCode: "US-OH"},
		newHotspot("L3", "Heron Rookery", 40.0, -80.0),
	}
	hotspots[2].CountyCode = ""

	clusters := ClusterByName(hotspots, 0.002)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"L1", "L2", "L3"}, clusters[0].IDs())
	assert.False(t, clusters[0].HasOverlappingMarkers)
}

func TestClusterByNameSkipsBlankNames(t *testing.T) {
	hotspots := []*Hotspot{
		newHotspot("L1", "", 40.0, -80.0),
		newHotspot("L2", "   ", 40.0, -80.0),
	}

	assert.Empty(t, ClusterByName(hotspots, 0.002))
}

func TestClusterByNameOrder(t *testing.T) {
	hotspots := []*Hotspot{
		newHotspot("L1", "Beta", 40.0, -80.0),
		newHotspot("L2", "Alpha", 40.1, -80.0),
		newHotspot("L3", "alpha", 40.2, -80.0),
		newHotspot("L4", "beta", 40.3, -80.0),
		newHotspot("L5", "BETA", 40.3, -80.0),
	}

	clusters := ClusterByName(hotspots, 0.002)
	assert.Equal(t, [][]string{{"L1", "L4", "L5"}, {"L2", "L3"}}, clusterIDs(clusters))
	assert.True(t, clusters[0].HasOverlappingMarkers)
	assert.False(t, clusters[1].HasOverlappingMarkers)
}

func TestFilterExplained(t *testing.T) {
	a := newHotspot("A", "Mill Pond", 40.0, -80.0)
	b := newHotspot("B", "Mill Pond", 40.0, -80.0001)
	c := newHotspot("C", "Mill Pond", 40.5, -80.0)
	d := newHotspot("D", "Dam", 41.0, -80.0)
	e := newHotspot("E", "Dam", 41.0, -80.0001)

	proximity := []*Cluster{
		{Key: "A,B", Members: []*Hotspot{a, b}},
		{Key: "D,E", Members: []*Hotspot{d, e}},
	}
	names := []*Cluster{
		{Key: "mill pond", Members: []*Hotspot{a, b, c}},
		{Key: "dam", Members: []*Hotspot{d, e}},
	}

	filtered := FilterExplained(names, proximity)
	require.Len(t, filtered, 1)
	assert.Equal(t, "mill pond", filtered[0].Key)

	// Filtering its own output removes nothing further.
	assert.Equal(t, filtered, FilterExplained(filtered, proximity))
}

func TestFilterExplainedWithoutProximity(t *testing.T) {
	names := []*Cluster{
		{Key: "dam", Members: []*Hotspot{newHotspot("D", "Dam", 41.0, -80.0), newHotspot("E", "Dam", 41.0, -80.0)}},
	}

	assert.Equal(t, names, FilterExplained(names, nil))
	assert.Empty(t, FilterExplained(nil, nil))
}
