package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/a2s/internal/shared"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	defaultMaxWait    = 2 * time.Minute
)

// RateLimitError is returned once a request is still throttled after every retry,
// or when the server asks for a longer wait than the transport allows.
type RateLimitError struct {
	RetryAfter time.Duration
	Attempts   int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited after %d attempts (retry after %s)", e.Attempts, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited after %d attempts", e.Attempts)
}

func (e *RateLimitError) Is(target error) bool { return target == shared.ErrRateLimited }

// RetryTransport retries throttled (429) and failing (5xx) requests with exponential backoff,
// honouring the Retry-After header when the server sends one. A request is sent at most
// MaxRetries+1 times; zero disables retries and a negative value uses the default.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Backoff    time.Duration
	MaxWait    time.Duration
	Logger     *log.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryTransport wraps base (or [http.DefaultTransport] when nil).
func NewRetryTransport(base http.RoundTripper, maxRetries int, backoff time.Duration, logger *log.Logger) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &RetryTransport{Base: base, MaxRetries: maxRetries, Backoff: backoff, MaxWait: defaultMaxWait, Logger: logger}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	maxRetries := t.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := t.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	sleep := t.sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	getBody := req.GetBody
	if req.Body != nil && getBody == nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to buffer request body: %w", err)
		}
		_ = req.Body.Close()
		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r := req.Clone(ctx)
		if getBody != nil {
			body, err := getBody()
			if err != nil {
				return nil, fmt.Errorf("failed to reset request body: %w", err)
			}
			r.Body = body
		}

		resp, err := t.Base.RoundTrip(r)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || attempt == maxRetries {
				return nil, err
			}
			t.Logger.Warn("request failed, retrying", "retry", attempt+1, "max", maxRetries, "error", err)
			if err := sleep(ctx, backoff*time.Duration(1<<attempt)); err != nil {
				return nil, err
			}
			continue
		}

		throttled := resp.StatusCode == http.StatusTooManyRequests
		if !throttled && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		wait := parseRetryAfter(resp)
		if throttled && (attempt == maxRetries || (t.MaxWait > 0 && wait > t.MaxWait)) {
			_ = resp.Body.Close()
			return nil, &RateLimitError{RetryAfter: wait, Attempts: attempt + 1}
		}
		if attempt == maxRetries {
			return resp, nil
		}
		_ = resp.Body.Close()

		if wait <= 0 {
			wait = backoff * time.Duration(1<<attempt)
		}
		t.Logger.Warn("retrying request", "status", resp.StatusCode, "retry", attempt+1, "max", maxRetries, "wait", wait)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
