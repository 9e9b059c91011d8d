// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay is the first backoff step when the client config leaves it
// unset. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

// MaxRetryAfter caps how long a server-sent Retry-After is honored.
var MaxRetryAfter = 10 * time.Second

// backoff returns the wait before retry number attempt+1. A 429 with a
// Retry-After header waits exactly that long (capped); everything else uses
// exponential backoff with full jitter: a uniform draw from
// [0, base * 2^attempt].
func (c *Client) backoff(attempt int, fe *FetchError) time.Duration {
	if fe.Kind == KindRateLimited && fe.RetryAfter > 0 {
		if fe.RetryAfter > MaxRetryAfter {
			return MaxRetryAfter
		}
		return fe.RetryAfter
	}
	base := c.baseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}
	ceiling := base << attempt
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
