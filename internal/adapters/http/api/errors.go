package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in {code, message} bodies.
const (
	CodeBadRequest    = "bad_request"
	CodeFetchFailed   = "fetch_failed"
	CodeSummaryFailed = "summary_failed"
	CodeInternal      = "internal_error"
)

func badRequest(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
}

// classify maps a pipeline error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, types.ErrInvalidRange),
		errors.Is(err, types.ErrFutureDate),
		errors.Is(err, types.ErrUnknownVersion),
		errors.Is(err, types.ErrInvalidAppID):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, model.ErrFetch):
		return http.StatusBadGateway, CodeFetchFailed
	case errors.Is(err, model.ErrSummary):
		return http.StatusBadGateway, CodeSummaryFailed
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
