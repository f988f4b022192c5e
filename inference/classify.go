package inference

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/telistry/switchboard/core/fault"
)

// overloadedStatus is the backend's load-shedding status, distinct from the
// rate-limit 429.
const overloadedStatus = 529

// classifyErr maps an API failure onto the fault taxonomy. Context
// cancellation passes through untouched; the caller hung up, nothing failed.
func classifyErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == overloadedStatus:
			return fault.NewBackendThrottled(err)
		case apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusRequestTimeout:
			return fault.NewBackendTransient("inference backend errored", err)
		default:
			return fault.NewBackendFatal(err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fault.NewBackendTransient("inference request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fault.NewBackendTransient("inference request timed out", err)
	}

	return fault.NewBackendFatal(err)
}
