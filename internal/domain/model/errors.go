package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds matched with errors.Is.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrSummary    = errors.New("summary failed")
	ErrComparison = errors.New("comparison failed")
)

// FetchError reports that the review collaborator could not deliver a
// snapshot for one (app, date).
type FetchError struct {
	AppID string
	Date  string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s on %s: %v", e.AppID, e.Date, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// SummaryError reports that a summary could not be produced.
type SummaryError struct {
	Fingerprint string
	Err         error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("summarize %s: %v", e.Fingerprint, e.Err)
}

func (e *SummaryError) Unwrap() error { return e.Err }

// Is matches ErrSummary.
func (e *SummaryError) Is(target error) bool { return target == ErrSummary }

// ComparisonError reports which period made a comparison fail.
type ComparisonError struct {
	Period string // "A", "B", or "AB" for the delta summary
	Err    error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("compare period %s: %v", e.Period, e.Err)
}

func (e *ComparisonError) Unwrap() error { return e.Err }

// Is matches ErrComparison.
func (e *ComparisonError) Is(target error) bool { return target == ErrComparison }
