// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const braveFixture = `{
  "type": "search",
  "web": {
    "results": [
      {"title": "FDA approves new treatment", "url": "https://www.fda.gov/news-events/press-announcements/x", "description": "The <strong>FDA</strong> approved...", "page_age": "2024-02-01T10:00:00", "age": "February 1, 2024"},
      {"title": "Analysis", "url": "https://www.statnews.com/2024/02/02/fda", "description": "What the approval means", "age": "3 weeks ago"},
      {"title": "Undated", "url": "https://wiki.example.org/fda", "description": "Background"}
    ]
  }
}`

func TestBraveSearch(t *testing.T) {
	var gotQuery, gotToken atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		gotToken.Store(r.Header.Get("X-Subscription-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(braveFixture))
	}))
	defer ts.Close()

	p := &BraveProvider{Client: testClient(), APIKey: "brv", BaseURL: ts.URL, Now: fixedNow}
	results, err := p.Search(context.Background(), Request{
		Query:       "fda approval",
		RecencyDays: 30,
		Sites:       []string{"gov"},
		MaxResults:  50,
	})
	require.NoError(t, err)

	params, err := url.ParseQuery(gotQuery.Load().(string))
	require.NoError(t, err)
	assert.Equal(t, "fda approval site:gov", params.Get("q"))
	assert.Equal(t, "pm", params.Get("freshness"))
	assert.Equal(t, "20", params.Get("count"), "count is capped at 20")
	assert.Equal(t, "brv", gotToken.Load())

	require.Len(t, results, 3)
	assert.Equal(t, "The FDA approved...", results[0].Snippet)
	assert.Equal(t, "2024-02-01", results[0].Published.String())
	assert.Equal(t, "2024-02-23", results[1].Published.String())
	assert.False(t, results[2].HasDate())
	assert.Equal(t, "fda.gov", results[0].Domain)
}

func TestBraveSearch_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"type":"ErrorResponse","error":{"detail":"invalid token"}}`))
	}))
	defer ts.Close()

	p := &BraveProvider{Client: testClient(), APIKey: "bad", BaseURL: ts.URL}
	_, err := p.Search(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestBraveSearch_RateLimited(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"type":"search","web":{"results":[]}}`))
	}))
	defer ts.Close()

	p := &BraveProvider{Client: testClient(), APIKey: "k", BaseURL: ts.URL}
	results, err := p.Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestBraveFreshness(t *testing.T) {
	tests := map[int]string{0: "", 1: "pd", 7: "pw", 14: "pm", 200: "py", 400: ""}
	for days, want := range tests {
		assert.Equal(t, want, braveFreshness(days), "days=%d", days)
	}
}

func TestStripTags(t *testing.T) {
	tests := map[string]string{
		"a <strong>bold</strong> move":               "a bold move",
		"3 > 2":                                      "3 > 2",
		"The agency&#x27;s <strong>Q&amp;A</strong>": "The agency's Q&A",
		"&lt;b&gt; stays literal":                    "<b> stays literal",
		"  &quot;quoted&quot;  ":                     `"quoted"`,
	}
	for in, want := range tests {
		assert.Equal(t, want, stripTags(in), in)
	}
}

func TestParseBraveResponse_DecodesEntities(t *testing.T) {
	data := []byte(`{"type":"search","web":{"results":[
		{"title":"FDA&#x27;s decision &amp; what&#39;s next","url":"https://www.fda.gov/x","description":"The <strong>FDA</strong>&#x27;s ruling"}
	]}}`)
	results, err := parseBraveResponse(data, fixedNow(), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "FDA's decision & what's next", results[0].Title)
	assert.Equal(t, "The FDA's ruling", results[0].Snippet)
}
