// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citations-engine pipeline:
// search results, fetched documents, quotes, the retrieval budget and state,
// and the composed answer contract.
package types

import (
	"net/url"
	"strings"
)

// QualityTier is an ordinal source-credibility classification. Lower values
// rank ahead of higher ones: Primary > TopTier > General > Unverified.
type QualityTier int

const (
	TierPrimary    QualityTier = 1
	TierTopTier    QualityTier = 2
	TierGeneral    QualityTier = 3
	TierUnverified QualityTier = 4
)

// String returns the tier name used in logs and result tables.
func (t QualityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierTopTier:
		return "top_tier"
	case TierGeneral:
		return "general"
	case TierUnverified:
		return "unverified"
	default:
		return "unknown"
	}
}

// Better reports whether t ranks strictly ahead of other.
func (t QualityTier) Better(other QualityTier) bool {
	return t < other
}

// SearchResult is one candidate returned by a search provider for a query.
// The URL is the dedup key within a query batch.
type SearchResult struct {
	// Title is the page title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// URL is the result link.
	URL string `json:"url" yaml:"url"`

	// Snippet is the provider's description of the page.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Published is the normalized publication date, zero when the provider gave none.
	Published Date `json:"date" yaml:"date"`

	// Domain is derived from URL (lowercase host, no "www.").
	Domain string `json:"domain" yaml:"domain"`

	// Tier is assigned during ranking. Zero until scored.
	Tier QualityTier `json:"tier,omitempty" yaml:"tier,omitempty"`

	// Query is the query that discovered this result.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// Rank is the zero-based discovery position across the merged batch.
	Rank int `json:"-" yaml:"-"`
}

// HasDate reports whether a publication date is known.
func (r SearchResult) HasDate() bool {
	return !r.Published.IsZero()
}

// DomainOf returns the lowercase host of rawURL with any leading "www."
// removed. It returns an empty string when rawURL has no host.
func DomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
