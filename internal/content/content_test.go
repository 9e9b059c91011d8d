// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package content

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

const articlePage = `<!DOCTYPE html>
<html>
<head>
  <title>Fallback Title | Example News</title>
  <meta property="og:title" content="Central bank holds rates steady">
  <meta property="og:site_name" content="Example News">
  <meta name="author" content="Jane Reporter">
  <meta property="article:published_time" content="2024-02-20T09:00:00Z">
</head>
<body>
  <nav><a href="/">Home</a> <a href="/markets">Markets</a> Subscribe now for unlimited access</nav>
  <header><h1>Central bank holds rates steady</h1></header>
  <article>
    <p>The central bank kept its benchmark rate unchanged on Tuesday, citing persistent inflation.</p>
    <p>Officials said further decisions would depend on incoming data.</p>
    <script>var tracking = "do not include me";</script>
  </article>
  <aside>Related: ten stocks to watch this week and other clickbait links.</aside>
  <footer>Copyright Example News. All rights reserved.</footer>
</body>
</html>`

func TestExtract_ArticleWithMetadata(t *testing.T) {
	doc, err := Extract([]byte(articlePage), "text/html; charset=utf-8", refNow)
	require.NoError(t, err)

	assert.Equal(t, "Central bank holds rates steady", doc.Title)
	assert.Equal(t, "Jane Reporter", doc.Author)
	assert.Equal(t, "Example News", doc.SiteName)
	assert.Equal(t, "2024-02-20", doc.Published.String())
	assert.NotEmpty(t, doc.DateSource)

	assert.Contains(t, doc.Text, "kept its benchmark rate unchanged on Tuesday")
	assert.Contains(t, doc.Text, "\n\nOfficials said")
	assert.NotContains(t, doc.Text, "tracking")
	assert.NotContains(t, doc.Text, "Subscribe now")
	assert.NotContains(t, doc.Text, "clickbait")
	assert.NotContains(t, doc.Text, "Copyright")
}

func TestExtract_JSONLDDateAndAuthor(t *testing.T) {
	page := `<html><head><title>Report</title>
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
  {"@type":"WebSite","name":"Site"},
  {"@type":"NewsArticle","headline":"Report","datePublished":"2023-11-05T10:00:00+00:00","author":{"@type":"Person","name":"Sam Writer"}}
]}</script></head>
<body><main><p>The agency published its annual report showing a sharp rise in renewable capacity.</p></main></body></html>`

	doc, err := Extract([]byte(page), "text/html", refNow)
	require.NoError(t, err)
	assert.Equal(t, "2023-11-05", doc.Published.String())
	assert.Equal(t, "json-ld", doc.DateSource)
	assert.Equal(t, "Sam Writer", doc.Author)
}

func TestExtract_TimeElementDate(t *testing.T) {
	page := `<html><head><title>Notice</title></head><body>
<div class="byline"><time datetime="2022-08-01">August 1</time></div>
<div role="main"><p>This notice describes the updated filing requirements for all registered entities.</p></div>
</body></html>`

	doc, err := Extract([]byte(page), "text/html", refNow)
	require.NoError(t, err)
	assert.Equal(t, "2022-08-01", doc.Published.String())
	assert.Equal(t, "time", doc.DateSource)
	assert.Equal(t, "Notice", doc.Title)
}

func TestExtract_InTextDateFallback(t *testing.T) {
	page := `<html><body><h1>Statement</h1>
<p>Released March 3, 2024. The ministry confirmed the new subsidy program will begin next quarter.</p></body></html>`

	doc, err := Extract([]byte(page), "text/html", refNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", doc.Published.String())
	assert.Equal(t, "text", doc.DateSource)
	assert.Equal(t, "Statement", doc.Title)
}

func TestExtract_UnparseableDateLeavesUnset(t *testing.T) {
	page := `<html><head><meta name="date" content="sometime soon"></head><body>
<article><p>There is no usable publication date anywhere in this fairly long paragraph of text.</p></article></body></html>`

	doc, err := Extract([]byte(page), "text/html", refNow)
	require.NoError(t, err)
	assert.True(t, doc.Published.IsZero())
	assert.Equal(t, "", doc.DateSource)
}

func TestExtract_PicksLargestArticle(t *testing.T) {
	page := `<html><body>
<article><p>Short teaser.</p></article>
<article><p>This is the real story body that carries the most text on the page by a wide margin.</p></article>
</body></html>`

	doc, err := Extract([]byte(page), "text/html", refNow)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "real story body")
	assert.NotContains(t, doc.Text, "Short teaser")
}

func TestExtract_NestedBlocksNotDuplicated(t *testing.T) {
	page := `<html><body><article><ul><li><p>First point in a nested list item with a paragraph.</p></li>
<li>Second point written directly inside the list item element.</li></ul></article></body></html>`

	doc, err := Extract([]byte(page), "text/html", refNow)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(doc.Text, "First point"))
	assert.Contains(t, doc.Text, "Second point")
}

func TestExtract_NotExtractable(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{"empty", []byte("   "), "text/html"},
		{"pdf", []byte("%PDF-1.7 binary"), "application/pdf"},
		{"image", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0}, ""},
		{"binary octet stream", []byte{0, 1, 2, 3, 4, 5}, "application/octet-stream"},
		{"too short", []byte("<html><body><p>Tiny.</p></body></html>"), "text/html"},
		{"only boilerplate", []byte(`<html><body><nav>` + strings.Repeat("menu item ", 20) + `</nav></body></html>`), "text/html"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(tc.body, tc.contentType, refNow)
			assert.ErrorIs(t, err, ErrNotExtractable)
		})
	}
}

func TestExtract_PlainText(t *testing.T) {
	body := "Quarterly Update\n\nPublished 2024-01-10.\n\nRevenue grew twelve percent year over year, driven by services."
	doc, err := Extract([]byte(body), "text/plain; charset=utf-8", refNow)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Update", doc.Title)
	assert.Equal(t, "2024-01-10", doc.Published.String())
	assert.Contains(t, doc.Text, "Revenue grew twelve percent")
}

func TestExtract_SniffsMissingContentType(t *testing.T) {
	doc, err := Extract([]byte(articlePage), "", refNow)
	require.NoError(t, err)
	assert.Equal(t, "Central bank holds rates steady", doc.Title)
}
