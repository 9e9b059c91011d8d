// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/citations-engine/internal/quality"
	"github.com/pdiddy/citations-engine/internal/quote"
	"github.com/pdiddy/citations-engine/internal/search"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// planQuick derives up to budget.MaxSearches distinct queries: the direct
// phrasing, the keyword form, and the keywords with "official".
func planQuick(question string, budget types.RetrievalBudget, issued map[string]bool) []search.Request {
	kw := keywords(question)
	candidates := []search.Request{
		{Query: direct(question)},
		{Query: kw},
		{Query: kw + " official"},
	}
	return pick(candidates, budget, issued)
}

// planDeep derives the Deep Check reformulations: keywords with the current
// year, keywords restricted to primary sites, and the question with "latest".
// Queries already issued are skipped.
func planDeep(question string, budget types.RetrievalBudget, now time.Time, issued map[string]bool) []search.Request {
	kw := keywords(question)
	year := strconv.Itoa(now.Year())

	withYear := kw
	if !strings.Contains(kw, year) {
		withYear = kw + " " + year
	}
	candidates := []search.Request{
		{Query: withYear},
		{Query: kw, Sites: quality.PrimarySites()},
		{Query: direct(question) + " latest"},
	}
	return pick(candidates, budget, issued)
}

func pick(candidates []search.Request, budget types.RetrievalBudget, issued map[string]bool) []search.Request {
	var out []search.Request
	for _, req := range candidates {
		if len(out) >= budget.MaxSearches {
			break
		}
		if req.IsEmpty() {
			continue
		}
		req.Query = strings.TrimSpace(req.Query)
		key := strings.ToLower(req.QueryString())
		if issued[key] {
			continue
		}
		issued[key] = true
		req.RecencyDays = budget.RecencyWindowDays
		req.MaxResults = budget.MaxResults
		out = append(out, req)
	}
	return out
}

func direct(question string) string {
	return strings.Join(strings.Fields(question), " ")
}

// keywords is the question reduced to its content terms, or the direct
// phrasing when nothing survives stopword removal.
func keywords(question string) string {
	terms := quote.Terms(question)
	if len(terms) == 0 {
		return direct(question)
	}
	return strings.Join(terms, " ")
}
