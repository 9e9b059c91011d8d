// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// RetrievalState is the request-scoped record of everything a retrieval
// has done. The orchestrator owns it; the composer only reads it.
type RetrievalState struct {
	Question string

	// Queries lists issued queries in issue order. QueriesIssued == len(Queries).
	Queries       []string
	QueriesIssued int

	// SearchFailures counts queries whose provider call failed.
	SearchFailures int

	// Results holds ranked, URL-deduplicated candidates.
	Results []SearchResult

	// FetchesAttempted counts fetch attempts across both passes.
	FetchesAttempted int

	// Documents maps URL to its successfully extracted document.
	Documents map[string]*FetchedDocument

	// Order lists Documents keys in the order they were recorded.
	Order []string

	// Failures maps URL to its failure reason. Failed URLs never appear in
	// Documents.
	Failures map[string]FailureReason

	// FailureDetails maps a failed URL to its human-readable message.
	FailureDetails map[string]string

	failedOrder []string

	// Attempted is every URL a fetch was started for. Never refetched.
	Attempted map[string]bool

	Quotes []Quote

	Notes []string

	Escalated        bool
	DeadlineExceeded bool

	Elapsed time.Duration
}

// NewRetrievalState returns an empty state for question.
func NewRetrievalState(question string) *RetrievalState {
	return &RetrievalState{
		Question:       question,
		Documents:      make(map[string]*FetchedDocument),
		Failures:       make(map[string]FailureReason),
		FailureDetails: make(map[string]string),
		Attempted:      make(map[string]bool),
	}
}

// AddNote appends a note unless an identical one is already recorded.
func (s *RetrievalState) AddNote(note string) {
	for _, n := range s.Notes {
		if n == note {
			return
		}
	}
	s.Notes = append(s.Notes, note)
}

// RecordDocument stores a fetch outcome: successful documents go to
// Documents, failures to Failures and FailureDetails.
func (s *RetrievalState) RecordDocument(doc *FetchedDocument) {
	if !doc.Success {
		if _, seen := s.Failures[doc.URL]; !seen {
			s.failedOrder = append(s.failedOrder, doc.URL)
		}
		s.Failures[doc.URL] = doc.FailureReason
		s.FailureDetails[doc.URL] = doc.Detail
		return
	}
	if _, seen := s.Documents[doc.URL]; !seen {
		s.Order = append(s.Order, doc.URL)
	}
	s.Documents[doc.URL] = doc
}

// Successful returns successful documents in record order.
func (s *RetrievalState) Successful() []*FetchedDocument {
	docs := make([]*FetchedDocument, 0, len(s.Order))
	for _, u := range s.Order {
		if d := s.Documents[u]; d != nil {
			docs = append(docs, d)
		}
	}
	return docs
}

// SucceededDomains returns the set of domains with at least one successful
// fetched (non-attachment) document.
func (s *RetrievalState) SucceededDomains() map[string]bool {
	domains := make(map[string]bool)
	for _, d := range s.Successful() {
		if d.Attachment {
			continue
		}
		domains[d.Domain] = true
	}
	return domains
}

// DistinctDomains counts SucceededDomains.
func (s *RetrievalState) DistinctDomains() int {
	return len(s.SucceededDomains())
}

// PrimaryCount counts successful fetched documents in the Primary tier.
func (s *RetrievalState) PrimaryCount() int {
	n := 0
	for _, d := range s.Successful() {
		if !d.Attachment && d.Tier == TierPrimary {
			n++
		}
	}
	return n
}

// SortedFailures returns failed URLs in record order.
func (s *RetrievalState) SortedFailures() []string {
	urls := make([]string, len(s.failedOrder))
	copy(urls, s.failedOrder)
	return urls
}

// FailureCounts tallies failures by reason, sorted by reason name.
func (s *RetrievalState) FailureCounts() []FailureCount {
	counts := make(map[FailureReason]int)
	for _, r := range s.Failures {
		counts[r]++
	}
	out := make([]FailureCount, 0, len(counts))
	for r, n := range counts {
		out = append(out, FailureCount{Reason: r, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reason < out[j].Reason })
	return out
}

// FailureCount is one row of FailureCounts.
type FailureCount struct {
	Reason FailureReason
	Count  int
}
