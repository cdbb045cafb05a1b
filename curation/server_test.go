// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/hotspots/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSource is a RegionSource backed by a map.
type mapSource map[string]*RegionSnapshot

func (m mapSource) Region(_ context.Context, code string) (*RegionSnapshot, error) {
	if s, ok := m[code]; ok {
		return s, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, code)
}

func setupServerTest(t *testing.T, source RegionSource) (*gin.Engine, *observability.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := observability.NewMetrics(nil)

	return NewServer(source, DefaultOptions(), metrics).Router(), metrics
}

func serve(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func scenarioSource() mapSource {
	return mapSource{
		"US-OH-001": {
			Code:  "US-OH-001",
			Label: "Adams County, Ohio, US",
			Hotspots: []*Hotspot{
				newHotspot("L1", "North Marsh", 40.000, -80.000),
				newHotspot("L2", "North Marsh Boardwalk", 40.0001, -80.0001),
				newHotspot("L3", "Lakeview Park", 41.00, -81.0),
				newHotspot("L4", "Lakeview Park", 41.09, -81.0),
			},
		},
	}
}

type reportJSON struct {
	Region    string `json:"region"`
	Label     string `json:"label"`
	Proximity []struct {
		Key                   string `json:"key"`
		HasOverlappingMarkers bool   `json:"has_overlapping_markers"`
		Members               []struct {
			ID string `json:"id"`
		} `json:"members"`
	} `json:"proximity_clusters"`
	Names []struct {
		Key string `json:"key"`
	} `json:"name_clusters"`
}

func TestGetDuplicatesAPI(t *testing.T) {
	router, metrics := setupServerTest(t, scenarioSource())

	w := serve(t, router, "/api/regions/us-oh-001/duplicates")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report reportJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	assert.Equal(t, "US-OH-001", report.Region)
	assert.Equal(t, "Adams County, Ohio, US", report.Label)
	require.Len(t, report.Proximity, 1)
	assert.Equal(t, "L1,L2", report.Proximity[0].Key)
	assert.Len(t, report.Proximity[0].Members, 2)
	require.Len(t, report.Names, 1)
	assert.Equal(t, "lakeview park", report.Names[0].Key)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Clusters.WithLabelValues("proximity")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Clusters.WithLabelValues("name")), 0)
}

func TestGetDuplicatesCustomThresholds(t *testing.T) {
	router, _ := setupServerTest(t, scenarioSource())

	// 20km joins the two parks; 1km does not.
	w := serve(t, router, "/api/regions/US-OH-001/duplicates?radius_km=20&overlap_km=1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report reportJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Proximity, 2)
	assert.Equal(t, "L3,L4", report.Proximity[1].Key)
	assert.True(t, report.Proximity[0].HasOverlappingMarkers)
	assert.Empty(t, report.Names)
}

func TestGetDuplicatesErrors(t *testing.T) {
	router, _ := setupServerTest(t, scenarioSource())

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"unknown region", "/api/regions/UY/duplicates", http.StatusNotFound},
		{"radius not a number", "/api/regions/US-OH-001/duplicates?radius_km=far", http.StatusBadRequest},
		{"overlap not a number", "/api/regions/US-OH-001/duplicates?overlap_km=x", http.StatusBadRequest},
		{"negative radius", "/api/regions/US-OH-001/duplicates?radius_km=-1", http.StatusBadRequest},
		{"overlap above radius", "/api/regions/US-OH-001/duplicates?radius_km=0.01&overlap_km=0.5", http.StatusBadRequest},
		{"bad thresholds win over unknown region", "/api/regions/UY/duplicates?radius_km=0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, router, tt.url)
			assert.Equal(t, tt.code, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetHotspotsAPI(t *testing.T) {
	router, _ := setupServerTest(t, scenarioSource())

	w := serve(t, router, "/api/regions/US-OH-001/hotspots")
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot RegionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot.Hotspots, 4)
	assert.Equal(t, "L1", snapshot.Hotspots[0].ID)

	assert.Equal(t, http.StatusNotFound, serve(t, router, "/api/regions/UY/hotspots").Code)
}

func TestListRegionsAPI(t *testing.T) {
	router, _ := setupServerTest(t, scenarioSource())
	assert.Equal(t, http.StatusNotImplemented, serve(t, router, "/api/regions").Code)

	repo := setupTestDB(t, nil)
	require.NoError(t, repo.SaveRegion(sampleSnapshot()))

	router, _ = setupServerTest(t, repo)

	w := serve(t, router, "/api/regions")
	require.Equal(t, http.StatusOK, w.Code)

	var regions []RegionSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &regions))
	require.Len(t, regions, 1)
	assert.Equal(t, "US-OH-001", regions[0].Code)
	assert.Equal(t, 3, regions[0].Hotspots)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupServerTest(t, scenarioSource())

	w := serve(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
