// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// FailureKind classifies a failed HTTP exchange.
type FailureKind int

const (
	KindTimeout FailureKind = iota + 1
	KindUnreachable
	KindHTTPError
	KindRateLimited
)

func (k FailureKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	case KindHTTPError:
		return "http_error"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// FetchError is returned by Client for every failed request.
type FetchError struct {
	Kind   FailureKind
	Status int
	URL    string

	// RetryAfter is the server-requested wait on 429, zero when absent.
	RetryAfter time.Duration

	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: %s (HTTP %d)", e.URL, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Reason maps the kind onto the document failure vocabulary.
func (e *FetchError) Reason() types.FailureReason {
	switch e.Kind {
	case KindTimeout:
		return types.FailureTimeout
	case KindRateLimited:
		return types.FailureRateLimited
	case KindHTTPError:
		return types.FailureHTTPError
	default:
		return types.FailureUnreachable
	}
}

// Detail returns a short human-readable explanation suitable for notes.
func (e *FetchError) Detail() string {
	switch e.Kind {
	case KindTimeout:
		return "request timeout"
	case KindRateLimited:
		return "rate limited"
	case KindUnreachable:
		return "host unreachable"
	}
	switch {
	case e.Status == http.StatusForbidden:
		return "access forbidden (possibly paywall or blocked)"
	case e.Status == http.StatusUnauthorized:
		return "authentication required"
	case e.Status == http.StatusNotFound:
		return "page not found"
	case e.Status >= 500:
		return fmt.Sprintf("server error (%d)", e.Status)
	default:
		return fmt.Sprintf("HTTP error %d", e.Status)
	}
}

// Temporary reports whether the failure is worth retrying.
func (e *FetchError) Temporary() bool {
	switch e.Kind {
	case KindTimeout, KindUnreachable, KindRateLimited:
		return true
	case KindHTTPError:
		return e.Status >= 500
	}
	return false
}

// AsFetchError unwraps err into a *FetchError when possible.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
