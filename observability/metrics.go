// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package observability holds the Prometheus metrics of the hotspots tools.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotspots"

// Provider request outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeNotFound  = "not_found"
	OutcomeRateLimit = "rate_limit"
	OutcomeError     = "error"
)

// Metrics holds the counters and histograms of the detection pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DetectionDuration prometheus.Histogram
	Clusters          *prometheus.CounterVec // labels: kind={proximity,name}
	OverlappingMarker *prometheus.CounterVec // labels: kind={proximity,name}
	RegionHotspots    prometheus.Histogram
	ProviderRequests  *prometheus.CounterVec // labels: outcome={success,not_found,rate_limit,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Duration of a duplicate detection run over one region.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Clusters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusters_total",
			Help:      "Suspected duplicate clusters reported, by kind.",
		}, []string{"kind"}),
		OverlappingMarker: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlapping_marker_clusters_total",
			Help:      "Reported clusters with at least two overlapping markers, by kind.",
		}, []string{"kind"}),
		RegionHotspots: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "region_hotspots",
			Help:      "Number of hotspots per analyzed region.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Region-data provider requests by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates the pipeline metrics and registers them with reg. A nil
// registerer leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()

	if reg != nil {
		reg.MustRegister(
			m.DetectionDuration,
			m.Clusters,
			m.OverlappingMarker,
			m.RegionHotspots,
			m.ProviderRequests,
		)
	}

	return m
}

// ObserveDetection records a finished detection run.
func (m *Metrics) ObserveDetection(elapsed time.Duration, hotspots, proximity, names int) {
	if m == nil {
		return
	}

	m.DetectionDuration.Observe(elapsed.Seconds())
	m.RegionHotspots.Observe(float64(hotspots))
	m.Clusters.WithLabelValues("proximity").Add(float64(proximity))
	m.Clusters.WithLabelValues("name").Add(float64(names))
}

// ObserveOverlap counts a cluster flagged with overlapping markers.
func (m *Metrics) ObserveOverlap(kind string) {
	if m == nil {
		return
	}

	m.OverlappingMarker.WithLabelValues(kind).Inc()
}

// ObserveProviderRequest counts a provider request.
func (m *Metrics) ObserveProviderRequest(outcome string) {
	if m == nil {
		return
	}

	m.ProviderRequests.WithLabelValues(outcome).Inc()
}
