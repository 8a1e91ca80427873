package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// classify maps a backend error onto the package sentinels. Caller
// cancellation passes through so agents can stop.
func classify(ctx context.Context, backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrModelUnavailable) || errors.Is(err, ErrModelTimeout) ||
		errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrInvalidOptions) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", backend, context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrModelTimeout, backend, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrModelTimeout, backend, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return fmt.Errorf("%w: %s: %v", ErrModelTimeout, backend, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrModelUnavailable, backend, err)
}
