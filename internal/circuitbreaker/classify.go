package circuitbreaker

import (
	"context"
	"errors"
	"os"
)

// httpStatusError is an error carrying an upstream HTTP status code.
type httpStatusError interface {
	HTTPStatus() int
}

// ClassifyError returns the failure weight of a call outcome.
//
// Weights:
//   - nil, 4xx (except 408 and 429) -> 0.0 (our request was wrong, upstream is fine)
//   - 429 (rate limited) -> 0.5
//   - 408, 5xx -> 1.0
//   - timeout (deadline exceeded) -> 1.5
//   - context cancellation -> 0.0 (caller gave up, upstream not at fault)
//   - anything else (DNS, refused connection) -> 1.0
func ClassifyError(err error) float64 {
	if err == nil {
		return 0
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return 1.5
	}
	if errors.Is(err, context.Canceled) {
		return 0
	}

	var he httpStatusError
	if errors.As(err, &he) {
		return classifyStatus(he.HTTPStatus())
	}

	return 1.0
}

func classifyStatus(code int) float64 {
	switch {
	case code == 429:
		return 0.5
	case code == 408, code >= 500:
		return 1.0
	default:
		return 0.0
	}
}
