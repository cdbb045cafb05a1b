// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"fmt"
	"strings"

	"github.com/jcodagnone/hotspots/spatial"
)

// Cluster is a group of hotspots suspected to describe the same place.
type Cluster struct {
	Key                   string     `json:"key"`
	Members               []*Hotspot `json:"members"`
	HasOverlappingMarkers bool       `json:"has_overlapping_markers"`
}

// IDs returns the member ids in member order.
func (c *Cluster) IDs() []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}

	return ids
}

// proximityPartition splits the hotspots with valid coordinates into
// radius-connected components, singletons included. Components are ordered
// by their first member and members keep input order.
func proximityPartition(hotspots []*Hotspot, radiusKm float64) ([][]*Hotspot, error) {
	located := make([]*Hotspot, 0, len(hotspots))
	points := make([]spatial.Point, 0, len(hotspots))

	for _, h := range hotspots {
		if h.HasValidPoint() {
			located = append(located, h)
			points = append(points, *h.Point)
		}
	}

	index, err := spatial.NewIndex(points, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("building spatial index: %w", err)
	}

	sets := newDisjointSet(len(located))

	for i, p := range points {
		for _, j := range index.WithinRadius(p.Lng, p.Lat, radiusKm) {
			// Only forward pairs; (j, i) was or will be seen from j.
			if j > i {
				sets.union(i, j)
			}
		}
	}

	groups := sets.groups()
	components := make([][]*Hotspot, len(groups))

	for g, members := range groups {
		component := make([]*Hotspot, len(members))
		for k, i := range members {
			component[k] = located[i]
		}

		components[g] = component
	}

	return components, nil
}

// ClusterByProximity groups hotspots that are transitively within radiusKm
// of each other. Hotspots without valid coordinates are ignored and
// components with a single member are not reported. overlapKm feeds the
// overlap detector.
func ClusterByProximity(hotspots []*Hotspot, radiusKm, overlapKm float64) ([]*Cluster, error) {
	components, err := proximityPartition(hotspots, radiusKm)
	if err != nil {
		return nil, err
	}

	clusters := make([]*Cluster, 0)

	for _, members := range components {
		if len(members) < 2 {
			continue
		}

		c := &Cluster{Members: members}
		c.Key = strings.Join(c.IDs(), ",")
		c.HasOverlappingMarkers = HasOverlappingMarkers(members, overlapKm)

		clusters = append(clusters, c)
	}

	return clusters, nil
}
