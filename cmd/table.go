// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}

	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}

		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range configs {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}

		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}

	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func overlapMark(c *curation.Cluster) string {
	if c.HasOverlappingMarkers {
		return "⚠️ yes"
	}

	return ""
}

func coordinates(h *curation.Hotspot) string {
	if h.Point == nil {
		return "-"
	}

	return fmt.Sprintf("%.5f, %.5f", h.Point.Lat, h.Point.Lng)
}

// clusterRows flattens clusters into one row per member.
func clusterRows(clusters []*curation.Cluster) [][]string {
	var rows [][]string

	for n, c := range clusters {
		for i, h := range c.Members {
			row := []string{"", h.ID, h.Name, coordinates(h), h.ScopeKey(), ""}
			if i == 0 {
				row[0] = textutils.FormatInt(int64(n + 1))
				row[5] = overlapMark(c)
			}

			rows = append(rows, row)
		}
	}

	return rows
}

var clusterHeaders = []string{"#", "Id", "Name", "Location", "Scope", "Overlap"}

// writeReportText prints a report as two tables.
func writeReportText(w io.Writer, report *curation.Report, opts curation.Options) error {
	title := report.Region
	if report.Label != "" {
		title = fmt.Sprintf("%s - %s", report.Region, report.Label)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "📍 %s\n", title)
	fmt.Fprintf(&b, "Hotspots within %s of each other: %d clusters\n",
		textutils.FormatDistanceKm(opts.RadiusKm), len(report.Proximity))

	if len(report.Proximity) > 0 {
		b.WriteString(renderTable(clusterHeaders, clusterRows(report.Proximity), []columnAlignment{alignRight}))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Hotspots sharing a name: %d clusters\n", len(report.Names))

	if len(report.Names) > 0 {
		b.WriteString(renderTable(clusterHeaders, clusterRows(report.Names), []columnAlignment{alignRight}))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())

	return err
}

// writeReports prints the reports as JSON or as tables.
func writeReports(w io.Writer, reports []*curation.Report, asJSON bool, opts curation.Options) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(reports)
	}

	for _, report := range reports {
		if err := writeReportText(w, report, opts); err != nil {
			return err
		}
	}

	return nil
}
