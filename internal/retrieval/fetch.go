// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citations-engine/internal/compose"
	"github.com/pdiddy/citations-engine/internal/content"
	"github.com/pdiddy/citations-engine/internal/dates"
	"github.com/pdiddy/citations-engine/internal/httputil"
	"github.com/pdiddy/citations-engine/internal/logging"
	"github.com/pdiddy/citations-engine/internal/quality"
	"github.com/pdiddy/citations-engine/internal/quote"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// rankResults scores and sorts results and drops dated results older than
// windowDays. Undated results are kept; they rank as Unverified.
func rankResults(results []types.SearchResult, score quality.ScoreFunc, windowDays int, now time.Time) ([]types.SearchResult, int) {
	ranked := quality.RankWith(results, score)
	if windowDays <= 0 {
		return ranked, 0
	}
	kept := ranked[:0]
	dropped := 0
	for _, res := range ranked {
		if age := dates.DaysBefore(res.Published, now); age > windowDays {
			dropped++
			continue
		}
		kept = append(kept, res)
	}
	return kept, dropped
}

type fetchOutcome struct {
	doc     *types.FetchedDocument
	quotes  []types.Quote
	latency time.Duration
}

// fetch works through unattempted ranked results with a bounded pool. It
// stops at the pass's MaxFetches attempts, when the source criteria are
// met, when candidates run out, or at the deadline. In-flight fetches never
// exceed the number of distinct sources still needed, and candidates from
// domains not yet covered are dispatched first.
func (r *run) fetch(ctx context.Context) Stage {
	var pending []types.SearchResult
	for _, res := range r.state.Results {
		if !r.state.Attempted[res.URL] {
			pending = append(pending, res)
		}
	}
	if len(pending) == 0 {
		return StageExtracting
	}

	maxAttempts := r.pass.MaxFetches
	results := make(chan fetchOutcome, maxAttempts)
	inflight := make(map[string]int) // domain -> in-flight count
	running, attempts := 0, 0

	for {
		a := compose.Assess(r.state, r.budget)
		if a.CriteriaMet {
			if running == 0 && attempts < maxAttempts && len(pending) > 0 {
				logging.Decision(r.log, "early_stop", "source criteria met", map[string]any{
					"attempts": attempts, "domains": a.Domains,
				})
			}
			if running == 0 {
				return StageExtracting
			}
		}

		need := max(1, r.budget.MinSources-a.Domains)
		for !a.CriteriaMet && ctx.Err() == nil && running < need && attempts < maxAttempts && len(pending) > 0 {
			next := r.nextCandidate(&pending, inflight)
			if next.Domain == "" {
				next.Domain = types.DomainOf(next.URL)
			}
			attempts++
			running++
			inflight[next.Domain]++
			r.state.Attempted[next.URL] = true
			r.state.FetchesAttempted++
			go func(c types.SearchResult) {
				results <- r.fetchOne(ctx, c)
			}(next)
		}

		if running == 0 {
			return StageExtracting
		}

		select {
		case out := <-results:
			running--
			inflight[out.doc.Domain]--
			r.record(out)
		case <-ctx.Done():
			// In-flight workers are abandoned; the buffered channel lets them exit.
			r.deadline(StageFetching)
			return StageExtracting
		}
	}
}

// nextCandidate removes and returns the best pending result, preferring a
// domain with no success and nothing in flight.
func (r *run) nextCandidate(pending *[]types.SearchResult, inflight map[string]int) types.SearchResult {
	covered := r.state.SucceededDomains()
	idx := 0
	for i, c := range *pending {
		if !covered[c.Domain] && inflight[c.Domain] == 0 {
			idx = i
			break
		}
	}
	next := (*pending)[idx]
	*pending = append((*pending)[:idx], (*pending)[idx+1:]...)
	return next
}

func (r *run) record(out fetchOutcome) {
	doc := out.doc
	logging.FetchURL(r.log, doc.URL, doc.Success, doc.HTTPStatus, out.latency, doc.Detail)
	r.state.RecordDocument(doc)
	if doc.Success {
		r.docQuotes[doc.URL] = out.quotes
	}
}

// fetchOne fetches, extracts, re-scores and quotes one candidate. It runs
// on its own goroutine and touches no shared run state.
func (r *run) fetchOne(ctx context.Context, c types.SearchResult) fetchOutcome {
	start := time.Now()
	tk := r.o.Toolkit
	doc := &types.FetchedDocument{
		URL:    c.URL,
		Title:  c.Title,
		Domain: c.Domain,
		Tier:   c.Tier,
		Rank:   c.Rank,
	}

	resp, err := tk.Fetch(ctx, c.URL)
	if err != nil {
		fail(ctx, doc, err)
		return fetchOutcome{doc: doc, latency: time.Since(start)}
	}
	doc.HTTPStatus = resp.Status
	doc.ContentType = resp.ContentType

	extracted, err := tk.ExtractContent(resp.Body, resp.ContentType)
	if err != nil {
		doc.FailureReason = types.FailureNotExtractable
		doc.Detail = err.Error()
		return fetchOutcome{doc: doc, latency: time.Since(start)}
	}

	doc.Success = true
	doc.FullText = extracted.Text
	doc.Author = extracted.Author
	if extracted.Title != "" {
		doc.Title = extracted.Title
	}
	doc.Published = c.Published
	if !extracted.Published.IsZero() {
		doc.Published = extracted.Published
	}
	doc.Tier = tk.ScoreQuality(c.URL, !doc.Published.IsZero())

	quotes := tk.ExtractQuotes(*doc, r.question, quote.Options{
		MaxChars:  r.budget.QuoteCharLimit,
		MaxQuotes: r.budget.MaxQuotes,
	})
	zerolog.Ctx(ctx).Debug().Str("url", doc.URL).Int("quotes", len(quotes)).
		Str("tier", doc.Tier.String()).Msg("document extracted")
	return fetchOutcome{doc: doc, quotes: quotes, latency: time.Since(start)}
}

func fail(ctx context.Context, doc *types.FetchedDocument, err error) {
	if fe, ok := httputil.AsFetchError(err); ok {
		doc.FailureReason = fe.Reason()
		doc.Detail = fe.Detail()
		doc.HTTPStatus = fe.Status
		return
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), ctx.Err() != nil:
		doc.FailureReason = types.FailureTimeout
		doc.Detail = "request timeout"
	case errors.Is(err, content.ErrNotExtractable):
		doc.FailureReason = types.FailureNotExtractable
		doc.Detail = err.Error()
	default:
		doc.FailureReason = types.FailureUnreachable
		doc.Detail = fmt.Sprintf("fetch failed: %v", err)
	}
}

// roundRobin takes quotes one per document per round, documents in ranked
// order, until limit quotes are collected.
func roundRobin(docs []*types.FetchedDocument, byURL map[string][]types.Quote, limit int) []types.Quote {
	ordered := make([]*types.FetchedDocument, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Tier != b.Tier {
			return a.Tier.Better(b.Tier)
		}
		if !a.Published.Equal(b.Published.Time) {
			return a.Published.After(b.Published)
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.URL < b.URL
	})

	var out []types.Quote
	for round := 0; len(out) < limit; round++ {
		added := false
		for _, d := range ordered {
			qs := byURL[d.URL]
			if round >= len(qs) {
				continue
			}
			out = append(out, qs[round])
			added = true
			if len(out) == limit {
				break
			}
		}
		if !added {
			break
		}
	}
	return out
}

// addAttachments records caller-supplied documents. They are never fetched
// and do not count as independent sources.
func (r *run) addAttachments(atts []types.Attachment) {
	for i, att := range atts {
		text, starts := quote.JoinPages(att.Pages)
		u := att.URL
		if u == "" {
			u = "attachment://" + att.Name
		}
		title := att.Title
		if title == "" {
			title = att.Name
		}
		doc := &types.FetchedDocument{
			URL:        u,
			Title:      title,
			FullText:   text,
			Published:  att.Date,
			Success:    true,
			Domain:     types.DomainOf(u),
			Tier:       r.o.Toolkit.ScoreQuality(u, !att.Date.IsZero()),
			Rank:       -len(atts) + i,
			Attachment: true,
		}
		r.state.RecordDocument(doc)
		r.docQuotes[u] = r.o.Toolkit.ExtractQuotes(*doc, r.question, quote.Options{
			MaxChars:   r.budget.QuoteCharLimit,
			MaxQuotes:  r.budget.MaxQuotes,
			PageStarts: starts,
		})
	}
}
