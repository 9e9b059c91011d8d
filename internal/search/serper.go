// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/citations-engine/internal/dates"
	"github.com/pdiddy/citations-engine/internal/httputil"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// serperSearchBase is the Serper Google search endpoint. Declared as a var
// so tests can substitute an httptest server.
var serperSearchBase = "https://google.serper.dev/search"

// serperMaxResults is the largest page Serper returns per call.
const serperMaxResults = 10

// SerperProvider queries Google results through the Serper API.
type SerperProvider struct {
	Client   *httputil.Client
	APIKey   string
	BaseURL  string
	Country  string
	Language string

	// Now anchors relative dates such as "3 days ago". Defaults to time.Now.
	Now func() time.Time
}

// Name returns the provider identifier.
func (p *SerperProvider) Name() string { return "serper" }

// Search issues one Serper query.
func (p *SerperProvider) Search(ctx context.Context, req Request) ([]types.SearchResult, error) {
	if req.IsEmpty() {
		return nil, unavailable(p.Name(), errors.New("empty query"))
	}

	num := req.MaxResults
	if num <= 0 || num > serperMaxResults {
		num = serperMaxResults
	}
	body := map[string]any{
		"q":   req.QueryString(),
		"num": num,
	}
	if tbs := serperRecency(req.RecencyDays); tbs != "" {
		body["tbs"] = tbs
	}
	if p.Country != "" {
		body["gl"] = p.Country
	}
	if p.Language != "" {
		body["hl"] = p.Language
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, unavailable(p.Name(), fmt.Errorf("encoding request: %w", err))
	}

	base := p.BaseURL
	if base == "" {
		base = serperSearchBase
	}
	header := http.Header{}
	header.Set("X-API-KEY", p.APIKey)
	header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(ctx, httputil.Request{
		Method:     http.MethodPost,
		URL:        base,
		Header:     header,
		Body:       payload,
		Class:      httputil.ClassSearch,
		Idempotent: true,
	}, 0)
	if err != nil {
		return nil, unavailable(p.Name(), err)
	}
	return parseSerperResponse(resp.Body, nowFunc(p.Now)(), num)
}

// serperRecency maps a day window onto Google's qdr time filter.
func serperRecency(days int) string {
	switch {
	case days <= 0:
		return ""
	case days <= 1:
		return "qdr:d"
	case days <= 7:
		return "qdr:w"
	case days <= 31:
		return "qdr:m"
	case days <= 366:
		return "qdr:y"
	default:
		return ""
	}
}

func parseSerperResponse(data []byte, now time.Time, limit int) ([]types.SearchResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, unavailable("serper", errors.New("parsing response: invalid JSON"))
	}
	root := gjson.ParseBytes(data)
	if msg := root.Get("message"); msg.Exists() && !root.Get("organic").Exists() {
		return nil, unavailable("serper", fmt.Errorf("API error: %s", msg.String()))
	}

	var results []types.SearchResult
	root.Get("organic").ForEach(func(_, item gjson.Result) bool {
		link := strings.TrimSpace(item.Get("link").String())
		if link == "" {
			return true
		}
		r := types.SearchResult{
			Title:   strings.TrimSpace(item.Get("title").String()),
			URL:     link,
			Snippet: strings.TrimSpace(item.Get("snippet").String()),
			Domain:  types.DomainOf(link),
		}
		if d, ok := dates.Parse(item.Get("date").String(), now); ok {
			r.Published = d
		}
		results = append(results, r)
		return len(results) < limit
	})
	if results == nil {
		results = []types.SearchResult{}
	}
	return results, nil
}

func nowFunc(f func() time.Time) func() time.Time {
	if f == nil {
		return time.Now
	}
	return f
}
