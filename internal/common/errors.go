// Package common holds the error taxonomy shared by the adapters, the
// services and the HTTP layer.
package common

import (
	"errors"
	"fmt"
)

var (
	// repository specific errors
	ErrNotFound = errors.New("not found")

	// request specific errors
	ErrInvalidInput = errors.New("invalid input")

	// adapter specific errors
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrEmptyResponse = errors.New("empty response")
	ErrUnavailable   = errors.New("not configured")
)

// ExtractionError reports a failed fetch or parse of a web page.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// AIError reports a failed call to the text generation backend.
type AIError struct {
	Op  string
	Err error
}

func (e *AIError) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
}

func (e *AIError) Unwrap() error { return e.Err }

// SearchError reports a failed call to the web search backend.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// StoreError reports a failed persistence operation. Code carries the
// PostgreSQL SQLSTATE when the driver reported one.
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store %s (%s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SaveError is terminal: the enriched save failed with Cause and the
// URL-only fallback insert failed with Err.
type SaveError struct {
	URL   string
	Cause error
	Err   error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: fallback insert failed: %v (after: %v)", e.URL, e.Err, e.Cause)
}

func (e *SaveError) Unwrap() []error { return []error{e.Err, e.Cause} }
