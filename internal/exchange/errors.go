package exchange

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayError is returned for every failed gateway call, both transport
// failures and exchange rejections.
type GatewayError struct {
	Exchange string
	Op       string
	Status   int // HTTP status, 0 when the request never completed
	Code     int // exchange error code, 0 when unknown
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	prefix := e.Op
	if e.Exchange != "" {
		prefix = e.Exchange + ": " + e.Op
	}
	switch {
	case e.Code != 0:
		return fmt.Sprintf("%s: %s (code %d)", prefix, msg, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s: HTTP %d: %s", prefix, e.Status, msg)
	default:
		return fmt.Sprintf("%s: %s", prefix, msg)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatus exposes the response status for error categorization
func (e *GatewayError) HTTPStatus() int {
	return e.Status
}

// Retryable reports whether repeating the call later may succeed
func (e *GatewayError) Retryable() bool {
	switch {
	case errors.Is(e.Err, ErrWeightAboveCapacity):
		return false
	case e.Status == 0 && e.Err != nil:
		return true
	case e.Status == http.StatusTooManyRequests, e.Status == 418:
		return true
	case e.Status >= 500:
		return true
	}
	return false
}

// IsGatewayError reports whether err carries a *GatewayError
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
