// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"strings"

	"github.com/jcodagnone/hotspots/spatial"
)

// Hotspot is a birding location as listed by the region-data provider.
type Hotspot struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Point             *spatial.Point `json:"point,omitempty"`
	CountryCode       string         `json:"country_code,omitempty"`
	StateCode         string         `json:"state_code,omitempty"`
	CountyCode        string         `json:"county_code,omitempty"`
	NumSpeciesAllTime int            `json:"num_species_all_time,omitempty"`
	LatestObsDt       string         `json:"latest_obs_dt,omitempty"`
}

// HasValidPoint reports whether the hotspot can take part in proximity
// clustering.
func (h *Hotspot) HasValidPoint() bool {
	return h.Point != nil && h.Point.Valid()
}

// ScopeKey returns the most specific administrative code available:
// county, else state, else country. It is empty when none is set.
func (h *Hotspot) ScopeKey() string {
	for _, code := range []string{h.CountyCode, h.StateCode, h.CountryCode} {
		if code = strings.TrimSpace(code); code != "" {
			return code
		}
	}

	return ""
}

// NormalizeName trims surrounding whitespace and lower-cases name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RegionSnapshot is the full hotspot list of a region at a point in time.
type RegionSnapshot struct {
	Code     string     `json:"code"`
	Label    string     `json:"label"`
	Hotspots []*Hotspot `json:"hotspots"`
}
