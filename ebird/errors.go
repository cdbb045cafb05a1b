// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package ebird

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// APIError describes a failed call to the region-data API.
type APIError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Err        error
}

// ErrorType classifies API errors.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNotFound the region doesn't exist.
	ErrorTypeNotFound
	// ErrorTypeRateLimit too many requests.
	ErrorTypeRateLimit
	// ErrorTypeUnauthorized missing or rejected API token.
	ErrorTypeUnauthorized
	// ErrorTypeInvalidRequest malformed request, usually a bad region code.
	ErrorTypeInvalidRequest
	// ErrorTypeNetwork transport failure or upstream unavailable.
	ErrorTypeNetwork
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeUnauthorized:
		return "unauthorized"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the region doesn't exist upstream.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrorTypeNotFound || apiErr.Type == ErrorTypeInvalidRequest
	}

	return false
}

// IsRateLimitError reports whether err is caused by rate limiting.
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

const maxBodyLen = 200

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n] + "…"
}

// ClassifyHTTPError maps an HTTP status code to an APIError.
func ClassifyHTTPError(statusCode int, body string) *APIError {
	body = truncate(strings.TrimSpace(body), maxBodyLen)

	newErr := func(t ErrorType, msg string) *APIError {
		if body != "" {
			msg = fmt.Sprintf("%s (%s)", msg, body)
		}

		return &APIError{Type: t, StatusCode: statusCode, Message: msg}
	}

	switch statusCode {
	case http.StatusNotFound:
		return newErr(ErrorTypeNotFound, "region not found")
	case http.StatusBadRequest:
		return newErr(ErrorTypeInvalidRequest, "invalid request")
	case http.StatusTooManyRequests:
		return newErr(ErrorTypeRateLimit, "rate limit reached")
	case http.StatusUnauthorized, http.StatusForbidden:
		return newErr(ErrorTypeUnauthorized, "API token missing or rejected")
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return newErr(ErrorTypeNetwork, fmt.Sprintf("service unavailable (status %d)", statusCode))
	default:
		return newErr(ErrorTypeUnknown, fmt.Sprintf("HTTP error %d", statusCode))
	}
}
