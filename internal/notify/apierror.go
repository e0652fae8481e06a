package notify

import (
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx response from a notification upstream. It
// satisfies the status interface the circuit breaker classifies on.
type APIError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// parseAPIError reads up to 4KB of the response body into an APIError.
func parseAPIError(upstream string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Upstream: upstream, StatusCode: resp.StatusCode, Body: string(body)}
}
