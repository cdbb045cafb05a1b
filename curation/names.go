// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

// nameKey is the grouping key of the duplicate-name clustering.
func nameKey(h *Hotspot) (string, bool) {
	name := NormalizeName(h.Name)
	if name == "" {
		return "", false
	}

	return h.ScopeKey() + "::" + name, true
}

// ClusterByName groups hotspots sharing a normalized name within the same
// scope key. Coordinates are not required; hotspots with a blank name never
// group. Clusters are ordered by first appearance.
func ClusterByName(hotspots []*Hotspot, overlapKm float64) []*Cluster {
	byKey := make(map[string]*Cluster)
	order := make([]*Cluster, 0)

	for _, h := range hotspots {
		key, ok := nameKey(h)
		if !ok {
			continue
		}

		c, found := byKey[key]
		if !found {
			c = &Cluster{Key: NormalizeName(h.Name)}
			byKey[key] = c
			order = append(order, c)
		}

		c.Members = append(c.Members, h)
	}

	clusters := make([]*Cluster, 0)

	for _, c := range order {
		if len(c.Members) < 2 {
			continue
		}

		c.HasOverlappingMarkers = HasOverlappingMarkers(c.Members, overlapKm)
		clusters = append(clusters, c)
	}

	return clusters
}

// FilterExplained drops the name clusters whose members all belong to some
// proximity cluster, since the proximity report already covers them.
func FilterExplained(names, proximity []*Cluster) []*Cluster {
	explained := make(map[string]bool)

	for _, c := range proximity {
		for _, m := range c.Members {
			explained[m.ID] = true
		}
	}

	kept := make([]*Cluster, 0, len(names))

	for _, c := range names {
		covered := true

		for _, m := range c.Members {
			if !explained[m.ID] {
				covered = false

				break
			}
		}

		if !covered {
			kept = append(kept, c)
		}
	}

	return kept
}
