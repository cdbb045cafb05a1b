// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package ebird downloads the hotspot list of a region from the eBird API.
package ebird

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/jcodagnone/hotspots/observability"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/httputils"
)

// DefaultBaseURL is the eBird API 2.0 endpoint.
const DefaultBaseURL = "https://api.ebird.org/v2"

// ErrInvalidRegionCode is returned for codes that can't be an eBird region.
var ErrInvalidRegionCode = errors.New("invalid region code")

// country, country-subnational1 or country-subnational1-subnational2.
var regionCodeRe = regexp.MustCompile(`^[A-Z]{2}(-[A-Z0-9]{1,3}(-[A-Z0-9]{1,4})?)?$`)

// ClientOptions configuration for Client.
type ClientOptions struct {
	// APIKey is sent in the X-eBirdApiToken header
	APIKey string

	// BaseURL overrides DefaultBaseURL
	BaseURL string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout of every request. Defaults to 60 seconds
	Timeout time.Duration

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// Metrics receives one observation per request. Optional
	Metrics *observability.Metrics
}

// Client talks to the eBird reference endpoints.
type Client struct {
	baseURL string
	client  *http.Client
	metrics *observability.Metrics
}

// NewClient creates a new client with the provided options.
func NewClient(options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "hotspots/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	}
	if options.APIKey != "" {
		headers["X-eBirdApiToken"] = options.APIKey
	}

	timeout := 60 * time.Second
	if options.Timeout > 0 {
		timeout = options.Timeout
	}

	baseURL := DefaultBaseURL
	if options.BaseURL != "" {
		baseURL = strings.TrimSuffix(options.BaseURL, "/")
	}

	return &Client{
		baseURL: baseURL,
		metrics: options.Metrics,
		client: &http.Client{
			Timeout: timeout,
			Transport: &httputils.AppendRequestHeadersRoundTripper{
				Headers:   headers,
				Transport: loggingTransport,
			},
		},
	}
}

// NormalizeRegionCode upper-cases and trims code.
func NormalizeRegionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRegionCode checks code looks like US, US-OH or US-OH-001.
func ValidateRegionCode(code string) error {
	if !regionCodeRe.MatchString(code) {
		return &APIError{
			Type:    ErrorTypeInvalidRequest,
			Message: fmt.Sprintf("%q is not a region code", code),
			Err:     ErrInvalidRegionCode,
		}
	}

	return nil
}

type hotspotRow struct {
	LocID             string   `json:"locId"`
	LocName           string   `json:"locName"`
	CountryCode       string   `json:"countryCode"`
	Subnational1Code  string   `json:"subnational1Code"`
	Subnational2Code  string   `json:"subnational2Code"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	LatestObsDt       string   `json:"latestObsDt"`
	NumSpeciesAllTime int      `json:"numSpeciesAllTime"`
}

func (r *hotspotRow) toHotspot() *curation.Hotspot {
	h := &curation.Hotspot{
		ID:                r.LocID,
		Name:              r.LocName,
		CountryCode:       r.CountryCode,
		StateCode:         r.Subnational1Code,
		CountyCode:        r.Subnational2Code,
		NumSpeciesAllTime: r.NumSpeciesAllTime,
		LatestObsDt:       r.LatestObsDt,
	}

	if r.Lat != nil && r.Lng != nil {
		h.Point = &spatial.Point{Lat: *r.Lat, Lng: *r.Lng}
	}

	return h
}

type regionInfo struct {
	Result string `json:"result"`
}

func (c *Client) observe(err error) {
	switch {
	case err == nil:
		c.metrics.ObserveProviderRequest(observability.OutcomeSuccess)
	case IsNotFound(err):
		c.metrics.ObserveProviderRequest(observability.OutcomeNotFound)
	case IsRateLimitError(err):
		c.metrics.ObserveProviderRequest(observability.OutcomeRateLimit)
	default:
		c.metrics.ObserveProviderRequest(observability.OutcomeError)
	}
}

// getJSON performs a GET against the API and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) (err error) {
	defer func() { c.observe(err) }()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{
			Type:    ErrorTypeNetwork,
			Message: "requesting " + path,
			Err:     err,
		}
	}

	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing response: %w", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return ClassifyHTTPError(resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	return nil
}

// Hotspots returns the hotspots of a region in the order the API lists them.
func (c *Client) Hotspots(ctx context.Context, region string) ([]*curation.Hotspot, error) {
	region = NormalizeRegionCode(region)
	if err := ValidateRegionCode(region); err != nil {
		return nil, err
	}

	var rows []hotspotRow

	query := url.Values{"fmt": []string{"json"}}
	if err := c.getJSON(ctx, "/ref/hotspot/"+url.PathEscape(region), query, &rows); err != nil {
		return nil, fmt.Errorf("fetching hotspots of %s: %w", region, err)
	}

	hotspots := make([]*curation.Hotspot, 0, len(rows))
	for i := range rows {
		hotspots = append(hotspots, rows[i].toHotspot())
	}

	return hotspots, nil
}

// RegionInfo returns the human readable name of a region.
func (c *Client) RegionInfo(ctx context.Context, region string) (string, error) {
	region = NormalizeRegionCode(region)
	if err := ValidateRegionCode(region); err != nil {
		return "", err
	}

	var info regionInfo
	if err := c.getJSON(ctx, "/ref/region/info/"+url.PathEscape(region), nil, &info); err != nil {
		return "", fmt.Errorf("fetching region info of %s: %w", region, err)
	}

	return info.Result, nil
}

// Region implements curation.RegionSource. Any failure is reported as
// curation.ErrRegionNotFound so callers never analyze a partial list.
func (c *Client) Region(ctx context.Context, code string) (*curation.RegionSnapshot, error) {
	code = NormalizeRegionCode(code)

	label, err := c.RegionInfo(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", curation.ErrRegionNotFound, err)
	}

	hotspots, err := c.Hotspots(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", curation.ErrRegionNotFound, err)
	}

	log.Printf("Fetched %d hotspots for %s (%s)", len(hotspots), code, label)

	return &curation.RegionSnapshot{
		Code:     code,
		Label:    label,
		Hotspots: hotspots,
	}, nil
}
