// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/citations-engine/internal/dates"
	"github.com/pdiddy/citations-engine/internal/httputil"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// braveSearchBase is the Brave web search endpoint. Declared as a var so
// tests can substitute an httptest server.
var braveSearchBase = "https://api.search.brave.com/res/v1/web/search"

const braveMaxResults = 20

// BraveProvider queries the Brave Search API.
type BraveProvider struct {
	Client   *httputil.Client
	APIKey   string
	BaseURL  string
	Country  string
	Language string
	Now      func() time.Time
}

// Name returns the provider identifier.
func (p *BraveProvider) Name() string { return "brave" }

// Search issues one Brave query.
func (p *BraveProvider) Search(ctx context.Context, req Request) ([]types.SearchResult, error) {
	if req.IsEmpty() {
		return nil, unavailable(p.Name(), errors.New("empty query"))
	}

	count := req.MaxResults
	if count <= 0 || count > braveMaxResults {
		count = braveMaxResults
	}
	params := url.Values{
		"q":     {req.QueryString()},
		"count": {strconv.Itoa(count)},
	}
	if f := braveFreshness(req.RecencyDays); f != "" {
		params.Set("freshness", f)
	}
	if p.Country != "" {
		params.Set("country", p.Country)
	}
	if p.Language != "" {
		params.Set("search_lang", p.Language)
	}

	base := p.BaseURL
	if base == "" {
		base = braveSearchBase
	}
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("X-Subscription-Token", p.APIKey)

	resp, err := p.Client.Do(ctx, httputil.Request{
		Method: http.MethodGet,
		URL:    base + "?" + params.Encode(),
		Header: header,
		Class:  httputil.ClassSearch,
	}, 0)
	if err != nil {
		return nil, unavailable(p.Name(), err)
	}
	return parseBraveResponse(resp.Body, nowFunc(p.Now)(), count)
}

// braveFreshness maps a day window onto Brave's freshness codes.
func braveFreshness(days int) string {
	switch {
	case days <= 0:
		return ""
	case days <= 1:
		return "pd"
	case days <= 7:
		return "pw"
	case days <= 31:
		return "pm"
	case days <= 366:
		return "py"
	default:
		return ""
	}
}

func parseBraveResponse(data []byte, now time.Time, limit int) ([]types.SearchResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, unavailable("brave", errors.New("parsing response: invalid JSON"))
	}
	root := gjson.ParseBytes(data)
	if root.Get("type").String() == "ErrorResponse" {
		return nil, unavailable("brave", fmt.Errorf("API error: %s", root.Get("error.detail").String()))
	}

	var results []types.SearchResult
	root.Get("web.results").ForEach(func(_, item gjson.Result) bool {
		link := strings.TrimSpace(item.Get("url").String())
		if link == "" {
			return true
		}
		r := types.SearchResult{
			Title:   stripTags(item.Get("title").String()),
			URL:     link,
			Snippet: stripTags(item.Get("description").String()),
			Domain:  types.DomainOf(link),
		}
		for _, field := range []string{"page_age", "age"} {
			if d, ok := dates.Parse(item.Get(field).String(), now); ok {
				r.Published = d
				break
			}
		}
		results = append(results, r)
		return len(results) < limit
	})
	if results == nil {
		results = []types.SearchResult{}
	}
	return results, nil
}

// stripTags removes the <strong> highlighting Brave puts in titles and
// descriptions, then decodes HTML entities such as &#x27; and &amp;.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(html.UnescapeString(b.String()))
}
