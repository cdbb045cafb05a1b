// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/hotspots/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// regionLister is implemented by sources that know which regions they hold.
type regionLister interface {
	ListRegions() ([]*RegionSummary, error)
}

// Server exposes the duplicate reports over HTTP.
type Server struct {
	source  RegionSource
	opts    Options
	metrics *observability.Metrics
}

// NewServer creates a server answering from source with opts as the default
// thresholds.
func NewServer(source RegionSource, opts Options, metrics *observability.Metrics) *Server {
	return &Server{
		source:  source,
		opts:    opts,
		metrics: metrics,
	}
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/api/regions", s.listRegions)
	r.GET("/api/regions/:region/duplicates", s.getDuplicates)
	r.GET("/api/regions/:region/hotspots", s.getHotspots)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func regionParam(ctx *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(ctx.Param("region")))
}

// thresholdParam reads an optional positive distance from the query string.
func thresholdParam(ctx *gin.Context, name string, fallback float64) (float64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}

	km, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidOptions, name)
	}

	return km, nil
}

func (s *Server) getDuplicates(ctx *gin.Context) {
	opts := s.opts

	var err error

	if opts.RadiusKm, err = thresholdParam(ctx, "radius_km", s.opts.RadiusKm); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if opts.OverlapKm, err = thresholdParam(ctx, "overlap_km", s.opts.OverlapKm); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	report, err := Analyze(ctx.Request.Context(), s.source, regionParam(ctx), opts, s.metrics)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, report)
}

func (s *Server) getHotspots(ctx *gin.Context) {
	snapshot, err := s.source.Region(ctx.Request.Context(), regionParam(ctx))
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

func (s *Server) listRegions(ctx *gin.Context) {
	lister, ok := s.source.(regionLister)
	if !ok {
		ctx.JSON(http.StatusNotImplemented, gin.H{"error": "region listing is only available offline"})

		return
	}

	regions, err := lister.ListRegions()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, regions)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, ErrRegionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
