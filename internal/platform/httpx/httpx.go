package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRetryBase = time.Second
	defaultRetryCap  = 10 * time.Second
	defaultJitter    = 0.2
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// RetryableStatus reports statuses worth another attempt: timeouts, rate limits and 5xx.
func RetryableStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// Retryable reports transient transport failures. Caller cancellation is never retryable.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return RetryableStatus(sc.HTTPStatusCode())
	}
	return false
}

// RetryAfter reads a Retry-After header in either the seconds or the HTTP-date form.
func RetryAfter(resp *http.Response, now time.Time) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(ra); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	at, err := http.ParseTime(ra)
	if err != nil || !at.After(now) {
		return 0, false
	}
	return at.Sub(now), true
}

// Retry is the backoff policy for outbound API calls. The zero value never retries.
type Retry struct {
	MaxRetries int
	// Base is the first wait; it doubles on every attempt.
	Base time.Duration
	// Cap bounds any single wait, a server's Retry-After included.
	Cap time.Duration
	// Jitter spreads each wait by this fraction either way.
	Jitter float64

	now  func() time.Time
	rand func() float64
}

// Next returns how long to wait before retrying after attempt (0-based) failed with err.
func (r Retry) Next(attempt int, resp *http.Response, err error) (time.Duration, bool) {
	if attempt >= r.MaxRetries || !Retryable(err) {
		return 0, false
	}
	base, ceiling, jitter := r.Base, r.Cap, r.Jitter
	if base <= 0 {
		base = defaultRetryBase
	}
	if ceiling <= 0 {
		ceiling = defaultRetryCap
	}
	if jitter <= 0 {
		jitter = defaultJitter
	}
	now, rnd := time.Now, rand.Float64
	if r.now != nil {
		now = r.now
	}
	if r.rand != nil {
		rnd = r.rand
	}

	wait := base << uint(attempt)
	if wait <= 0 || wait > ceiling {
		wait = ceiling
	}
	if ra, ok := RetryAfter(resp, now()); ok {
		wait = ra
		if wait > ceiling {
			wait = ceiling
		}
	}
	spread := float64(wait) * jitter
	return time.Duration(float64(wait) - spread + rnd()*2*spread), true
}

// Sleep waits for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
