// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBudget is returned by RetrievalBudget.Validate for malformed
// budgets. It is the only failure that reaches the caller of a retrieval.
var ErrInvalidBudget = errors.New("invalid retrieval budget")

// Budget defaults.
const (
	DefaultMaxSearches    = 3
	DefaultMaxFetches     = 5
	DefaultMinSources     = 2
	DefaultQuoteCharLimit = 120
	DefaultLatencyBudget  = 45 * time.Second
	DefaultMaxResults     = 10
	DefaultMaxQuotes      = 4
	DefaultDeepSearches   = 2
	DefaultDeepFetches    = 3

	// MinQuoteChars is the shortest quote considered informative.
	MinQuoteChars = 20
)

// RetrievalBudget bounds one retrieval request. It is built once per
// request and never mutated after the request starts.
type RetrievalBudget struct {
	// MaxSearches caps queries issued in the Quick pass.
	MaxSearches int `json:"max_searches" yaml:"max_searches" mapstructure:"max_searches"`

	// MaxFetches caps fetch attempts in the Quick pass.
	MaxFetches int `json:"max_fetches" yaml:"max_fetches" mapstructure:"max_fetches"`

	// MinSources is the number of distinct-domain documents that satisfies termination.
	MinSources int `json:"min_sources" yaml:"min_sources" mapstructure:"min_sources"`

	// QuoteCharLimit is the maximum quote length in characters.
	QuoteCharLimit int `json:"quote_char_limit" yaml:"quote_char_limit" mapstructure:"quote_char_limit"`

	// RequirePrimarySource makes one Primary-tier document sufficient and necessary.
	RequirePrimarySource bool `json:"require_primary_source" yaml:"require_primary_source" mapstructure:"require_primary_source"`

	// RecencyWindowDays drops dated results older than the window. Zero disables it.
	RecencyWindowDays int `json:"recency_window_days,omitempty" yaml:"recency_window_days,omitempty" mapstructure:"recency_window_days"`

	// LatencyBudget is the hard wall-clock deadline for the whole request.
	LatencyBudget time.Duration `json:"latency_budget" yaml:"latency_budget" mapstructure:"latency_budget"`

	// MaxResults is the per-query result count requested from the provider.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// MaxQuotes is the number of quotes the answer aims for.
	MaxQuotes int `json:"max_quotes" yaml:"max_quotes" mapstructure:"max_quotes"`

	// DeepSearches and DeepFetches cap the single Deep Check pass.
	DeepSearches int `json:"deep_searches" yaml:"deep_searches" mapstructure:"deep_searches"`
	DeepFetches  int `json:"deep_fetches" yaml:"deep_fetches" mapstructure:"deep_fetches"`
}

// DefaultBudget returns the Quick budget defaults.
func DefaultBudget() RetrievalBudget {
	return RetrievalBudget{
		MaxSearches:    DefaultMaxSearches,
		MaxFetches:     DefaultMaxFetches,
		MinSources:     DefaultMinSources,
		QuoteCharLimit: DefaultQuoteCharLimit,
		LatencyBudget:  DefaultLatencyBudget,
		MaxResults:     DefaultMaxResults,
		MaxQuotes:      DefaultMaxQuotes,
		DeepSearches:   DefaultDeepSearches,
		DeepFetches:    DefaultDeepFetches,
	}
}

// WithDefaults fills zero-valued numeric fields from DefaultBudget.
// Booleans and the recency window keep their explicit values.
func (b RetrievalBudget) WithDefaults() RetrievalBudget {
	d := DefaultBudget()
	if b.MaxSearches == 0 {
		b.MaxSearches = d.MaxSearches
	}
	if b.MaxFetches == 0 {
		b.MaxFetches = d.MaxFetches
	}
	if b.MinSources == 0 {
		b.MinSources = d.MinSources
	}
	if b.QuoteCharLimit == 0 {
		b.QuoteCharLimit = d.QuoteCharLimit
	}
	if b.LatencyBudget == 0 {
		b.LatencyBudget = d.LatencyBudget
	}
	if b.MaxResults == 0 {
		b.MaxResults = d.MaxResults
	}
	if b.MaxQuotes == 0 {
		b.MaxQuotes = d.MaxQuotes
	}
	if b.DeepSearches == 0 {
		b.DeepSearches = d.DeepSearches
	}
	if b.DeepFetches == 0 {
		b.DeepFetches = d.DeepFetches
	}
	return b
}

// Validate rejects budgets the state machine cannot honor.
func (b RetrievalBudget) Validate() error {
	var problems []string
	if b.MaxSearches < 1 {
		problems = append(problems, fmt.Sprintf("max_searches must be >= 1, got %d", b.MaxSearches))
	}
	if b.MaxFetches < 1 {
		problems = append(problems, fmt.Sprintf("max_fetches must be >= 1, got %d", b.MaxFetches))
	}
	if b.MinSources < 1 {
		problems = append(problems, fmt.Sprintf("min_sources must be >= 1, got %d", b.MinSources))
	}
	if b.QuoteCharLimit < MinQuoteChars {
		problems = append(problems, fmt.Sprintf("quote_char_limit must be >= %d, got %d", MinQuoteChars, b.QuoteCharLimit))
	}
	if b.RecencyWindowDays < 0 {
		problems = append(problems, fmt.Sprintf("recency_window_days must be >= 0, got %d", b.RecencyWindowDays))
	}
	if b.LatencyBudget <= 0 {
		problems = append(problems, fmt.Sprintf("latency_budget must be positive, got %s", b.LatencyBudget))
	}
	if b.MaxResults < 1 {
		problems = append(problems, fmt.Sprintf("max_results must be >= 1, got %d", b.MaxResults))
	}
	if b.MaxQuotes < 1 {
		problems = append(problems, fmt.Sprintf("max_quotes must be >= 1, got %d", b.MaxQuotes))
	}
	if b.DeepSearches < 0 || b.DeepFetches < 0 {
		problems = append(problems, "deep_searches and deep_fetches must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidBudget, problems)
	}
	return nil
}

// Relaxed returns the Deep Check budget: its own search and fetch caps and
// a doubled recency window. The latency budget is unchanged because the
// deadline covers the whole request.
func (b RetrievalBudget) Relaxed() RetrievalBudget {
	r := b
	r.MaxSearches = b.DeepSearches
	r.MaxFetches = b.DeepFetches
	if b.RecencyWindowDays > 0 {
		r.RecencyWindowDays = b.RecencyWindowDays * 2
	}
	return r
}

// HTTPConfig holds settings for the process-wide fetch client.
type HTTPConfig struct {
	// UserAgent is sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxConns bounds in-flight connections across all callers (default 20).
	MaxConns int `json:"max_conns" yaml:"max_conns" mapstructure:"max_conns"`

	// MaxIdleConns bounds pooled idle connections (default 10).
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`

	// RetryBaseDelay is the first backoff step (default 500ms).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`

	// MaxBodyBytes caps how much of a response body is read (default 5 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	Search ClassConfig `json:"search" yaml:"search" mapstructure:"search"`
	Fetch  ClassConfig `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
}

// ClassConfig tunes one upstream host class (search API or generic fetch).
type ClassConfig struct {
	// Timeout is the per-call timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries counts retries after the first attempt. Nil uses the class
	// default; zero disables retries.
	MaxRetries *int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" mapstructure:"max_retries"`

	// RatePerMinute is the token bucket refill rate.
	RatePerMinute float64 `json:"rate_per_minute" yaml:"rate_per_minute" mapstructure:"rate_per_minute"`

	// Burst is the token bucket size (default 3 for search, 5 for fetch).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	// Provider is "serper" or "brave".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates with the provider. Usually loaded from .secrets/.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	Country  string `json:"country,omitempty" yaml:"country,omitempty" mapstructure:"country"`
	Language string `json:"language,omitempty" yaml:"language,omitempty" mapstructure:"language"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// JournalConfig locates the run history database.
type JournalConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups every configurable section of the CLI.
type Config struct {
	HTTP    HTTPConfig      `json:"http" yaml:"http" mapstructure:"http"`
	Search  SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Budget  RetrievalBudget `json:"budget" yaml:"budget" mapstructure:"budget"`
	Log     LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Journal JournalConfig   `json:"journal" yaml:"journal" mapstructure:"journal"`
}
