// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality classifies sources into credibility tiers and ranks
// search results by tier and recency.
package quality

import (
	"sort"
	"strings"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// primarySuffixes are matched against whole trailing labels of the host.
var primarySuffixes = []string{
	// Government
	"gov", "mil", "gov.uk", "parliament.uk", "europa.eu",
	"bundesregierung.de", "gouvernement.fr", "gc.ca", "gov.au",
	// Standards and multilateral bodies
	"who.int", "un.org", "oecd.org", "imf.org", "worldbank.org",
	"iso.org", "ietf.org", "w3.org", "nist.gov",
	// Academic and research
	"edu", "ac.uk", "arxiv.org", "nature.com", "science.org",
}

// irPrefixes mark company investor-relations hosts.
var irPrefixes = []string{"ir.", "investors.", "investor."}

var topTierDomains = []string{
	"reuters.com", "ft.com", "wsj.com", "nytimes.com", "bloomberg.com",
	"economist.com", "bbc.com", "bbc.co.uk", "apnews.com", "afp.com",
	"theguardian.com", "washingtonpost.com", "time.com", "forbes.com",
}

// Score returns the tier for rawURL. A source without a publication date is
// always Unverified regardless of domain. Score is pure and deterministic.
func Score(rawURL string, hasDate bool) types.QualityTier {
	if !hasDate {
		return types.TierUnverified
	}
	host := types.DomainOf(rawURL)
	if host == "" {
		return types.TierGeneral
	}
	if IsPrimaryDomain(host) {
		return types.TierPrimary
	}
	for _, d := range topTierDomains {
		if hasSuffixLabel(host, d) {
			return types.TierTopTier
		}
	}
	return types.TierGeneral
}

// IsPrimaryDomain reports whether host belongs to a government, standards,
// academic or investor-relations site, independent of dating.
func IsPrimaryDomain(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, p := range irPrefixes {
		if strings.HasPrefix(host, p) && strings.Count(host, ".") >= 2 {
			return true
		}
	}
	for _, s := range primarySuffixes {
		if hasSuffixLabel(host, s) {
			return true
		}
	}
	return false
}

// PrimarySites returns site filters for restricting a query to primary
// sources. Only generic suffixes are returned; search engines accept them
// as "site:gov".
func PrimarySites() []string {
	return []string{"gov", "edu", "europa.eu", "who.int"}
}

// hasSuffixLabel reports whether host equals suffix or ends with "."+suffix.
// "notgov.com" does not match "gov"; "data.sec.gov" does.
func hasSuffixLabel(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// Rank assigns tiers to results and sorts them stably by tier, then
// recency (newest first, undated last), then discovery order. It returns
// a new slice.
func Rank(results []types.SearchResult) []types.SearchResult {
	return RankWith(results, Score)
}

// ScoreFunc assigns a tier to a URL.
type ScoreFunc func(rawURL string, hasDate bool) types.QualityTier

// RankWith is Rank with tiers assigned by score.
func RankWith(results []types.SearchResult, score ScoreFunc) []types.SearchResult {
	ranked := make([]types.SearchResult, len(results))
	copy(ranked, results)
	for i := range ranked {
		ranked[i].Tier = score(ranked[i].URL, ranked[i].HasDate())
		if ranked[i].Domain == "" {
			ranked[i].Domain = types.DomainOf(ranked[i].URL)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Tier != b.Tier {
			return a.Tier.Better(b.Tier)
		}
		if !a.Published.Equal(b.Published.Time) {
			return a.Published.After(b.Published)
		}
		return a.Rank < b.Rank
	})
	return ranked
}
