package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/spidy-listings/pkg/pagination"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures (connection, timeout).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and any response carrying Retry-After.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassDecode represents malformed or schema-mismatched responses,
	// including inconsistent pagination.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassCancelled represents a cancelled or timed out context.
	ErrorClassCancelled ErrorClass = "cancelled"

	// ErrorClassUnknown is returned by ClassOf for unclassified errors.
	ErrorClassUnknown ErrorClass = "unknown"
)

// APIError represents a GW2Spidy request failure with additional context.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spidy %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("spidy %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassOf classifies any error returned while talking to the API.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassCancelled
	}

	if errors.Is(err, pagination.ErrInconsistentPage) {
		return ErrorClassDecode
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}

	return ErrorClassUnknown
}

// classifyStatus maps an HTTP error status to an ErrorClass.
func classifyStatus(status int, retryAfter string) ErrorClass {
	switch {
	case status == 429 || retryAfter != "":
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnknown
	}
}
