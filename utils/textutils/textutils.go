// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds the text helpers used for display and lookups.
package textutils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding removes accents, lower-cases and trims s.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// ContainsFolded reports whether needle occurs in s, ignoring case and
// accents. An empty needle matches everything.
func ContainsFolded(s, needle string) bool {
	return strings.Contains(LowerASCIIFolding(s), LowerASCIIFolding(needle))
}

// FormatInt formats n with thousands separators: 1234567 is "1,234,567".
func FormatInt(n int64) string {
	digits := strconv.FormatInt(n, 10)

	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder

	b.WriteString(sign)

	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	b.WriteString(digits[:head])

	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}

	return b.String()
}

// FormatDistanceKm renders a distance in meters below one kilometer.
func FormatDistanceKm(km float64) string {
	if km < 1 {
		return strconv.FormatFloat(km*1000, 'g', 6, 64) + " m"
	}

	return strconv.FormatFloat(km, 'f', -1, 64) + " km"
}
