// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose turns a finished retrieval state into the ComposedAnswer
// output contract.
package compose

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// Compose builds the answer for state. It is pure: identical states yield
// identical answers regardless of the order fetches completed in. The
// answer is validated before it is returned; anything Validate rejects is
// repaired and noted in Method.Notes.
func Compose(state *types.RetrievalState, budget types.RetrievalBudget) types.ComposedAnswer {
	budget = budget.WithDefaults()
	assessment := Assess(state, budget)

	sources := buildSources(state)
	quotes := selectQuotes(state.Quotes, budget)
	sources = repairSources(sources, quotes, state)

	index := make(map[string]int, len(sources))
	for i, s := range sources {
		index[s.URL] = i + 1
	}

	answer := types.ComposedAnswer{
		Summary:    summarize(quotes, sources, assessment),
		Bullets:    bullets(quotes, index),
		Quotes:     quotes,
		Sources:    sources,
		Confidence: assessment.Confidence,
		Method: types.Method{
			Queries: append([]string{}, state.Queries...),
			Hops:    state.FetchesAttempted,
			Notes:   notes(state, assessment),
		},
	}

	if errs := problems(answer, budget); len(errs) > 0 {
		answer = repair(answer, budget)
		note := fmt.Sprintf("answer repaired after %d validation problem(s), first: %v", len(errs), errs[0])
		if answer.Method.Notes == "" {
			answer.Method.Notes = note
		} else {
			answer.Method.Notes += "; " + note
		}
	}
	return answer
}

// buildSources lists successful documents ordered by tier, then recency,
// then URL.
func buildSources(state *types.RetrievalState) []types.SourceDescriptor {
	docs := state.Successful()
	sources := make([]types.SourceDescriptor, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, descriptor(d))
	}
	sortSources(sources)
	return sources
}

func descriptor(d *types.FetchedDocument) types.SourceDescriptor {
	domain := d.Domain
	if domain == "" {
		domain = types.DomainOf(d.URL)
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = domain
	}
	return types.SourceDescriptor{
		Title:      title,
		Domain:     domain,
		URL:        d.URL,
		Date:       d.Published,
		Tier:       d.Tier,
		Attachment: d.Attachment,
	}
}

func sortSources(sources []types.SourceDescriptor) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.Tier != b.Tier {
			return a.Tier.Better(b.Tier)
		}
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date)
		}
		return a.URL < b.URL
	})
}

// selectQuotes orders quotes by tier, recency, URL and offset, drops any
// that exceed the character limit and keeps at most MaxQuotes.
func selectQuotes(in []types.Quote, budget types.RetrievalBudget) []types.Quote {
	quotes := make([]types.Quote, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, q := range in {
		if q.Text == "" || utf8.RuneCountInString(q.Text) > budget.QuoteCharLimit {
			continue
		}
		key := q.SourceURL + "\x00" + q.Text
		if seen[key] {
			continue
		}
		seen[key] = true
		quotes = append(quotes, q)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := quotes[i], quotes[j]
		if a.Tier != b.Tier {
			return a.Tier.Better(b.Tier)
		}
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date)
		}
		if a.SourceURL != b.SourceURL {
			return a.SourceURL < b.SourceURL
		}
		return a.Offset < b.Offset
	})

	if len(quotes) > budget.MaxQuotes {
		quotes = quotes[:budget.MaxQuotes]
	}
	return quotes
}

// repairSources adds a descriptor for every quoted URL missing from sources.
func repairSources(sources []types.SourceDescriptor, quotes []types.Quote, state *types.RetrievalState) []types.SourceDescriptor {
	have := make(map[string]bool, len(sources))
	for _, s := range sources {
		have[s.URL] = true
	}

	added := false
	for _, q := range quotes {
		if have[q.SourceURL] {
			continue
		}
		have[q.SourceURL] = true
		added = true
		if d, ok := state.Documents[q.SourceURL]; ok {
			sources = append(sources, descriptor(d))
			continue
		}
		sources = append(sources, types.SourceDescriptor{
			Title:  q.SourceTitle,
			Domain: types.DomainOf(q.SourceURL),
			URL:    q.SourceURL,
			Date:   q.Date,
			Tier:   q.Tier,
		})
	}
	if added {
		sortSources(sources)
	}
	return sources
}

func bullets(quotes []types.Quote, index map[string]int) []types.Bullet {
	out := make([]types.Bullet, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, types.Bullet{
			Text:      q.Text,
			SourceRef: q.SourceURL,
			Index:     index[q.SourceURL],
		})
	}
	return out
}

func summarize(quotes []types.Quote, sources []types.SourceDescriptor, a Assessment) string {
	if len(quotes) > 0 {
		top := quotes[0]
		who := top.SourceTitle
		if who == "" {
			who = types.DomainOf(top.SourceURL)
		}
		if d := top.Date.String(); d != "" {
			return fmt.Sprintf("According to %s (%s): \"%s\"", who, d, top.Text)
		}
		return fmt.Sprintf("According to %s: \"%s\"", who, top.Text)
	}
	if len(sources) > 0 {
		return fmt.Sprintf("Found %d source(s) but no passage could be quoted in support of an answer.", len(sources))
	}
	if a.Shortfall != "" {
		return "No verifiable sources were found; " + a.Shortfall + "."
	}
	return "No verifiable sources were found."
}

// notes joins orchestrator notes, per-URL failure messages and the
// assessment shortfall.
func notes(state *types.RetrievalState, a Assessment) string {
	var parts []string
	parts = append(parts, state.Notes...)

	if failed := state.SortedFailures(); len(failed) > 0 {
		var counts []string
		for _, fc := range state.FailureCounts() {
			counts = append(counts, fmt.Sprintf("%d %s", fc.Count, fc.Reason))
		}
		parts = append(parts, fmt.Sprintf("%d fetch(es) failed (%s)", len(failed), strings.Join(counts, ", ")))
		for _, u := range failed {
			if detail := state.FailureDetails[u]; detail != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", types.DomainOf(u), detail))
			}
		}
	}

	if a.Shortfall != "" {
		parts = append(parts, a.Shortfall)
	}

	seen := make(map[string]bool, len(parts))
	out := parts[:0]
	for _, p := range parts {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return strings.Join(out, "; ")
}
