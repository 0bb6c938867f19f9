package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
)

var (
	// ErrNoCountFound means the response was fetched but contained no recognizable count.
	ErrNoCountFound = errors.New("no member count found")
	// ErrBrowserUnavailable means the browser fallback is disabled or could not start.
	ErrBrowserUnavailable = errors.New("headless browser unavailable")
)

// FetchError carries the failure classification of a single fetch attempt.
type FetchError struct {
	Reason models.FailureReason
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(reason models.FailureReason, err error) *FetchError {
	return &FetchError{Reason: reason, Err: err}
}

// classifyError maps an error from any strategy to a FailureReason.
func classifyError(err error) models.FailureReason {
	if err == nil {
		return models.ReasonNone
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Reason
	}

	switch {
	case errors.Is(err, ErrNoCountFound):
		return models.ReasonParseMiss
	case errors.Is(err, ErrBrowserUnavailable):
		return models.ReasonUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, common.ErrTimeout):
		return models.ReasonTimeout
	}

	if _, ok := common.IsHTTPError(err); ok {
		return models.ReasonHTTPError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ReasonTimeout
	}

	return models.ReasonTransport
}
