package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// GatewayError is returned for every failure talking to the payment
// processor: transport errors, timeouts, non-2xx responses and malformed
// bodies. It never implies the payment itself failed and is always retryable.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("gateway %s: failed", e.Op)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time.
func (e *GatewayError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func (e *GatewayError) Retryable() bool {
	return true
}

// IsGatewayError reports whether err wraps a *GatewayError.
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
