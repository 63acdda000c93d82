package homework

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable marks transport-level failures (connect, timeout).
	// A transport failure stops the request path immediately; it is never
	// folded into the HTTP status check.
	ErrServiceUnavailable = errors.New("homework api unavailable")

	// ErrMalformedResponse marks a body that is not valid JSON.
	ErrMalformedResponse = errors.New("homework api returned malformed json")

	// ErrBadShape marks a decoded payload that does not match the documented
	// response shape (object with a "homeworks" array).
	ErrBadShape = errors.New("unexpected homework api response shape")

	// ErrParse marks a submission record that cannot be rendered: missing
	// name, or a status outside the verdict map.
	ErrParse = errors.New("cannot parse submission")
)

// StatusError reports a non-200 HTTP response from the homework API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("homework api responded with status %d", e.Code)
}
