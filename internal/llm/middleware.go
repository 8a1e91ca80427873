package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies middlewares left to right: Wrap(inner, A, B) is A(B(inner)).
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

// ClientFunc adapts a function to Client.
type ClientFunc struct {
	name string
	fn   func(ctx context.Context, req Request, opts Options) (*Completion, error)
}

// Func builds a named ClientFunc.
func Func(name string, fn func(ctx context.Context, req Request, opts Options) (*Completion, error)) *ClientFunc {
	return &ClientFunc{name: name, fn: fn}
}

func (c *ClientFunc) Name() string { return c.name }

func (c *ClientFunc) Complete(ctx context.Context, req Request, opts Options) (*Completion, error) {
	return c.fn(ctx, req, opts)
}

// RateLimit limits calls to rps with the given burst. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return func(next Client) Client {
		limiter := rate.NewLimiter(rate.Limit(rps), burst)
		return Func(next.Name(), func(ctx context.Context, req Request, opts Options) (*Completion, error) {
			if err := limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return nil, classify(ctx, next.Name(), ctx.Err())
				}
				return nil, fmt.Errorf("rate limiter error: %w", err)
			}
			return next.Complete(ctx, req, opts)
		})
	}
}

// Timeout bounds each call. A deadline hit inside the call becomes
// ErrModelTimeout.
func Timeout(d time.Duration) Middleware {
	if d <= 0 {
		return nil
	}
	return func(next Client) Client {
		return Func(next.Name(), func(ctx context.Context, req Request, opts Options) (*Completion, error) {
			callCtx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			resp, err := next.Complete(callCtx, req, opts)
			if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: no response within %s", ErrModelTimeout, d)
			}
			return resp, err
		})
	}
}

// Retry retries ErrModelUnavailable up to attempts extra times with
// exponential backoff starting at base. Malformed responses and timeouts
// are never retried here.
func Retry(attempts int, base time.Duration) Middleware {
	if attempts <= 0 {
		return nil
	}
	return func(next Client) Client {
		return Func(next.Name(), func(ctx context.Context, req Request, opts Options) (*Completion, error) {
			var lastErr error
			for attempt := 0; attempt <= attempts; attempt++ {
				if attempt > 0 {
					backoff := base * time.Duration(1<<(attempt-1))
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
						return nil, classify(ctx, next.Name(), ctx.Err())
					}
				}
				resp, err := next.Complete(ctx, req, opts)
				if err == nil {
					return resp, nil
				}
				lastErr = err
				if !errors.Is(err, ErrModelUnavailable) {
					return nil, err
				}
			}
			return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
		})
	}
}
