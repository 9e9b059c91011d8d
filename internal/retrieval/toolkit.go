// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"time"

	"github.com/pdiddy/citations-engine/internal/content"
	"github.com/pdiddy/citations-engine/internal/httputil"
	"github.com/pdiddy/citations-engine/internal/quality"
	"github.com/pdiddy/citations-engine/internal/quote"
	"github.com/pdiddy/citations-engine/internal/search"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// Toolkit is the set of capabilities the orchestrator calls. Each stage
// reaches exactly one of them. Implementations must be safe for
// concurrent use.
type Toolkit interface {
	Search(ctx context.Context, req search.Request) ([]types.SearchResult, error)
	Fetch(ctx context.Context, url string) (*httputil.Response, error)
	ScoreQuality(url string, hasDate bool) types.QualityTier
	ExtractContent(raw []byte, contentType string) (*content.Document, error)
	ExtractQuotes(doc types.FetchedDocument, question string, opts quote.Options) []types.Quote
}

// DefaultToolkit wires the production components: one shared fetch client
// and one search provider.
type DefaultToolkit struct {
	Client   *httputil.Client
	Provider search.Provider

	// FetchTimeout is the per-page timeout. Zero uses the client's fetch
	// class default.
	FetchTimeout time.Duration

	// Now anchors relative dates found in pages. Defaults to time.Now.
	Now func() time.Time
}

var _ Toolkit = (*DefaultToolkit)(nil)

func (t *DefaultToolkit) Search(ctx context.Context, req search.Request) ([]types.SearchResult, error) {
	return t.Provider.Search(ctx, req)
}

func (t *DefaultToolkit) Fetch(ctx context.Context, url string) (*httputil.Response, error) {
	return t.Client.Fetch(ctx, url, t.FetchTimeout)
}

func (t *DefaultToolkit) ScoreQuality(url string, hasDate bool) types.QualityTier {
	return quality.Score(url, hasDate)
}

func (t *DefaultToolkit) ExtractContent(raw []byte, contentType string) (*content.Document, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return content.Extract(raw, contentType, now())
}

func (t *DefaultToolkit) ExtractQuotes(doc types.FetchedDocument, question string, opts quote.Options) []types.Quote {
	return quote.Extract(doc, question, opts)
}
