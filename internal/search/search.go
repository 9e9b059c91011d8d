// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries a web search API and returns normalized,
// deduplicated results.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// ErrSearchUnavailable wraps every provider failure: network errors,
// exhausted retries, authentication problems and malformed responses.
// Zero results is not an error.
var ErrSearchUnavailable = errors.New("search unavailable")

// Provider searches one web search API.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) ([]types.SearchResult, error)
}

// Request holds the parameters of one query.
type Request struct {
	Query string

	// RecencyDays restricts results to roughly the last N days. Zero means no limit.
	RecencyDays int

	// Sites restricts results to these domains or suffixes ("gov", "sec.gov").
	Sites []string

	// ExcludeSites removes results from these domains.
	ExcludeSites []string

	MaxResults int
}

// IsEmpty reports whether the request has no searchable text.
func (r Request) IsEmpty() bool {
	return strings.TrimSpace(r.Query) == ""
}

// QueryString renders Query with site operators the way both supported
// engines accept them.
func (r Request) QueryString() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Query))
	switch len(r.Sites) {
	case 0:
	case 1:
		b.WriteString(" site:" + r.Sites[0])
	default:
		parts := make([]string, len(r.Sites))
		for i, s := range r.Sites {
			parts[i] = "site:" + s
		}
		b.WriteString(" (" + strings.Join(parts, " OR ") + ")")
	}
	for _, s := range r.ExcludeSites {
		b.WriteString(" -site:" + s)
	}
	return b.String()
}

// Func is the signature of Provider.Search, so callers can substitute a
// wrapped capability.
type Func func(ctx context.Context, req Request) ([]types.SearchResult, error)

// QueryFailure records a query whose provider call failed.
type QueryFailure struct {
	Query string
	Err   error
}

// Output holds merged results and batch statistics.
type Output struct {
	Results     []types.SearchResult
	DupsRemoved int
	Failures    []QueryFailure
}

// All runs reqs concurrently, one goroutine per query, and merges the
// results in request order so discovery order does not depend on
// scheduling. Individual failures are recorded and skipped.
func All(ctx context.Context, search Func, reqs []Request) Output {
	batches := make([][]types.SearchResult, len(reqs))
	errs := make([]error, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, len(reqs)))
	for i, req := range reqs {
		g.Go(func() error {
			results, err := search(gctx, req)
			if err != nil {
				errs[i] = err
				return nil
			}
			for j := range results {
				results[j].Query = req.Query
			}
			batches[i] = results
			return nil
		})
	}
	_ = g.Wait()

	var out Output
	var all []types.SearchResult
	for i := range reqs {
		if errs[i] != nil {
			out.Failures = append(out.Failures, QueryFailure{Query: reqs[i].Query, Err: errs[i]})
			continue
		}
		all = append(all, batches[i]...)
	}
	out.Results, out.DupsRemoved = Deduplicate(all)
	return out
}

// Deduplicate keeps the first occurrence of each URL, filling its empty
// fields from later duplicates, and numbers survivors in discovery order.
func Deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]int)
	var deduped []types.SearchResult
	removed := 0
	for _, r := range results {
		key := NormalizeURL(r.URL)
		if key == "" {
			removed++
			continue
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], r)
			removed++
			continue
		}
		if r.Domain == "" {
			r.Domain = types.DomainOf(r.URL)
		}
		r.Rank = len(deduped)
		seen[key] = len(deduped)
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// NormalizeURL returns the dedup key for rawURL: scheme and host
// lowercased, fragment and trailing slash dropped.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return ""
	}
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimSuffix(u, "/")
	if i := strings.Index(u, "://"); i >= 0 {
		rest := u[i+3:]
		host, path := rest, ""
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			host, path = rest[:j], rest[j:]
		}
		u = strings.ToLower(u[:i]) + "://" + strings.ToLower(host) + path
	}
	return u
}

func mergeInto(dst *types.SearchResult, src types.SearchResult) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Snippet == "" {
		dst.Snippet = src.Snippet
	}
	if dst.Published.IsZero() {
		dst.Published = src.Published
	}
}

// FormatTable writes ranked results as a human-readable table to w.
func FormatTable(results []types.SearchResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-55s  %-24s  %-10s  %s\n", "Rank", "Title", "Domain", "Date", "Tier")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-55s  %-24s  %-10s  %s\n",
			i+1, truncate(r.Title, 55), truncate(r.Domain, 24), r.Published.String(), r.Tier)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// unavailable wraps err with ErrSearchUnavailable and the provider name.
func unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSearchUnavailable, provider, err)
}
