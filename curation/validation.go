// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidOptions is returned for unusable detection thresholds.
	ErrInvalidOptions = errors.New("invalid detection options")
	// ErrDuplicateID is returned when two hotspots share an id.
	ErrDuplicateID = errors.New("duplicate hotspot id")
)

// validateThreshold checks that a distance threshold is finite and positive.
func validateThreshold(name string, km float64) error {
	if math.IsNaN(km) || math.IsInf(km, 0) {
		return fmt.Errorf("%w: %s must be finite (got %v)", ErrInvalidOptions, name, km)
	}

	if km <= 0 {
		return fmt.Errorf("%w: %s must be positive (got %v)", ErrInvalidOptions, name, km)
	}

	return nil
}

// validateHotspots checks the input list of a detection run.
func validateHotspots(hotspots []*Hotspot) error {
	seen := make(map[string]bool, len(hotspots))

	for i, h := range hotspots {
		if h == nil {
			return fmt.Errorf("hotspot at position %d can't be nil", i)
		}

		if strings.TrimSpace(h.ID) == "" {
			return fmt.Errorf("hotspot at position %d has an empty id", i)
		}

		if seen[h.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, h.ID)
		}

		seen[h.ID] = true
	}

	return nil
}
