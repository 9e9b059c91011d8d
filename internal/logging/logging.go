// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger used by the CLI and emits the
// structured pipeline events: search_query, fetch_url, decision and
// performance.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event types written in the "event_type" field.
const (
	EventSearchQuery = "search_query"
	EventFetchURL    = "fetch_url"
	EventDecision    = "decision"
	EventPerformance = "performance"
)

// New returns a logger writing to w. format is "json" (default) or
// "console"; level is any zerolog level name, "info" when empty.
func New(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	switch strings.ToLower(format) {
	case "", "json":
	case "console", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want json or console)", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// SearchQuery logs one provider call.
func SearchQuery(log *zerolog.Logger, query string, numResults int, latency time.Duration, err error) {
	e := log.Info()
	if err != nil {
		e = log.Warn().Err(err)
	}
	e.Str("event_type", EventSearchQuery).
		Str("query", query).
		Int("num_results", numResults).
		Float64("latency_ms", ms(latency)).
		Msg("search query")
}

// FetchURL logs one fetch attempt. detail is empty on success.
func FetchURL(log *zerolog.Logger, url string, success bool, status int, latency time.Duration, detail string) {
	e := log.Info()
	if !success {
		e = log.Warn()
	}
	e.Str("event_type", EventFetchURL).
		Str("url", url).
		Bool("success", success).
		Int("status_code", status).
		Float64("latency_ms", ms(latency)).
		Str("error", detail).
		Msg("fetch url")
}

// Decision logs a state machine transition or stopping rule.
func Decision(log *zerolog.Logger, decisionType, reason string, fields map[string]any) {
	log.Info().
		Str("event_type", EventDecision).
		Str("decision_type", decisionType).
		Str("reason", reason).
		Fields(fields).
		Msg("decision")
}

// Performance logs the latency of a whole operation.
func Performance(log *zerolog.Logger, operation string, latency time.Duration, success bool) {
	log.Info().
		Str("event_type", EventPerformance).
		Str("operation", operation).
		Float64("latency_ms", ms(latency)).
		Bool("success", success).
		Msg("performance")
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
