// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package content turns fetched page bytes into clean main-content text
// plus title, author and publication date metadata.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/citations-engine/internal/dates"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// ErrNotExtractable means the payload had no usable main content.
var ErrNotExtractable = errors.New("content not extractable")

// MinContentChars is the shortest cleaned text accepted as a document.
const MinContentChars = 50

// dateScanChars bounds how much leading text is searched for an in-text date.
const dateScanChars = 1500

// Document is the extraction result for one page.
type Document struct {
	Title       string
	Text        string
	Author      string
	SiteName    string
	Description string
	Published   types.Date

	// DateSource names where Published came from: "opengraph", "meta",
	// "json-ld", "time", "text", or "" when unknown.
	DateSource string
}

const boilerplate = "script, style, noscript, nav, header, footer, aside, form, iframe, svg, template, " +
	"button, [aria-hidden=true], [role=navigation], [role=banner], [role=contentinfo], " +
	".advertisement, .ad-container, .cookie-banner, .social-share, .newsletter-signup"

const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, figcaption, dt, dd"

// Extract parses raw according to contentType. now anchors relative dates.
func Extract(raw []byte, contentType string, now time.Time) (*Document, error) {
	kind, err := classify(raw, contentType)
	if err != nil {
		return nil, err
	}
	if kind == "text" {
		return extractPlain(raw)
	}
	return extractHTML(raw, now)
}

func classify(raw []byte, contentType string) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", fmt.Errorf("%w: empty body", ErrNotExtractable)
	}
	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(raw))
	}
	switch {
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return "html", nil
	case mediaType == "text/plain":
		if looksBinary(raw) {
			return "", fmt.Errorf("%w: binary payload", ErrNotExtractable)
		}
		return "text", nil
	default:
		return "", fmt.Errorf("%w: unsupported content type %q", ErrNotExtractable, mediaType)
	}
}

func looksBinary(raw []byte) bool {
	sample := raw
	if len(sample) > 512 {
		sample = sample[:512]
	}
	return bytes.IndexByte(sample, 0) >= 0 || !utf8.Valid(sample[:validPrefix(sample)])
}

// validPrefix trims a possibly split trailing rune before validation.
func validPrefix(b []byte) int {
	for n := len(b); n > 0 && n > len(b)-utf8.UTFMax; n-- {
		if utf8.Valid(b[:n]) {
			return n
		}
	}
	return len(b)
}

func extractPlain(raw []byte) (*Document, error) {
	var paras []string
	for _, p := range strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n\n") {
		if p = normalizeSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	text := strings.Join(paras, "\n\n")
	if utf8.RuneCountInString(text) < MinContentChars {
		return nil, fmt.Errorf("%w: only %d characters of text", ErrNotExtractable, utf8.RuneCountInString(text))
	}
	doc := &Document{Text: text}
	if len(paras) > 0 && utf8.RuneCountInString(paras[0]) <= 200 {
		doc.Title = paras[0]
	}
	if d, ok := dates.FindInText(head(text, dateScanChars)); ok {
		doc.Published, doc.DateSource = d, "text"
	}
	return doc, nil
}

func extractHTML(raw []byte, now time.Time) (*Document, error) {
	og := opengraph.NewOpenGraph()
	// OpenGraph metadata is optional; a parse failure leaves it empty.
	_ = og.ProcessHTML(bytes.NewReader(raw))

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %v", ErrNotExtractable, err)
	}

	doc := &Document{
		SiteName:    strings.TrimSpace(og.SiteName),
		Description: strings.TrimSpace(og.Description),
	}
	ld := jsonLD(page)

	doc.Title = firstNonEmpty(
		og.Title,
		page.Find("title").First().Text(),
		ld.Get("headline").String(),
		page.Find("h1").First().Text(),
	)
	doc.Title = normalizeSpace(doc.Title)
	doc.Author = normalizeSpace(findAuthor(page, ld))
	if doc.Description == "" {
		doc.Description = strings.TrimSpace(page.Find(`meta[name="description"]`).AttrOr("content", ""))
	}

	doc.Published, doc.DateSource = findMetaDate(og, page, ld, now)

	page.Find(boilerplate).Remove()
	doc.Text = mainText(page)
	if n := utf8.RuneCountInString(doc.Text); n < MinContentChars {
		return nil, fmt.Errorf("%w: only %d characters of main content", ErrNotExtractable, n)
	}

	if doc.Published.IsZero() {
		if d, ok := dates.FindInText(head(doc.Text, dateScanChars)); ok {
			doc.Published, doc.DateSource = d, "text"
		}
	}
	return doc, nil
}

var dateMetaKeys = []string{
	"article:published_time", "og:published_time", "datePublished", "pubdate",
	"publishdate", "publish-date", "date", "DC.date.issued", "dc.date", "DC.date",
	"sailthru.date", "parsely-pub-date", "citation_publication_date", "article.published",
}

func findMetaDate(og *opengraph.OpenGraph, page *goquery.Document, ld gjson.Result, now time.Time) (types.Date, string) {
	if og.Article != nil && og.Article.PublishedTime != nil && !og.Article.PublishedTime.IsZero() {
		return types.NewDate(*og.Article.PublishedTime), "opengraph"
	}

	for _, key := range dateMetaKeys {
		sel := fmt.Sprintf(`meta[property=%q], meta[name=%q], meta[itemprop=%q]`, key, key, key)
		var found types.Date
		page.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if d, ok := dates.Parse(s.AttrOr("content", ""), now); ok {
				found = d
				return false
			}
			return true
		})
		if !found.IsZero() {
			return found, "meta"
		}
	}

	for _, path := range []string{"datePublished", "dateCreated", "uploadDate"} {
		if v := ld.Get(path); v.Exists() {
			if d, ok := dates.Parse(v.String(), now); ok {
				return d, "json-ld"
			}
		}
	}

	var found types.Date
	page.Find("time[datetime], [itemprop=datePublished][datetime]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if d, ok := dates.Parse(s.AttrOr("datetime", ""), now); ok {
			found = d
			return false
		}
		return true
	})
	if !found.IsZero() {
		return found, "time"
	}
	return types.Date{}, ""
}

func findAuthor(page *goquery.Document, ld gjson.Result) string {
	if a := page.Find(`meta[name="author"]`).AttrOr("content", ""); strings.TrimSpace(a) != "" {
		return a
	}
	for _, path := range []string{"author.name", "author.0.name", "author"} {
		if v := ld.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	if a := page.Find(`meta[property="article:author"]`).AttrOr("content", ""); a != "" && !strings.HasPrefix(a, "http") {
		return a
	}
	return page.Find(`[rel="author"]`).First().Text()
}

// jsonLD returns the first JSON-LD object that looks like an article, or
// the first object at all. Arrays and @graph containers are unwrapped.
func jsonLD(page *goquery.Document) gjson.Result {
	var first, article gjson.Result
	page.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if !gjson.Valid(raw) {
			return true
		}
		parsed := gjson.Parse(raw)
		var objects []gjson.Result
		switch {
		case parsed.IsArray():
			objects = parsed.Array()
		case parsed.Get("@graph").IsArray():
			objects = parsed.Get("@graph").Array()
		default:
			objects = []gjson.Result{parsed}
		}
		for _, obj := range objects {
			if !obj.IsObject() {
				continue
			}
			if !first.Exists() {
				first = obj
			}
			if obj.Get("datePublished").Exists() || strings.Contains(obj.Get("@type").String(), "Article") {
				article = obj
				return false
			}
		}
		return true
	})
	if article.Exists() {
		return article
	}
	return first
}

// mainText picks the most specific content root and joins its block text.
func mainText(page *goquery.Document) string {
	root := largest(page.Find("article"))
	if root == nil {
		for _, sel := range []string{"main", "[role=main]", "body"} {
			if s := page.Find(sel).First(); s.Length() > 0 {
				root = s
				break
			}
		}
	}
	if root == nil {
		root = page.Selection
	}

	var blocks []string
	root.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if t := normalizeSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return normalizeSpace(root.Text())
	}
	return strings.Join(blocks, "\n\n")
}

func largest(sel *goquery.Selection) *goquery.Selection {
	var best *goquery.Selection
	bestLen := 0
	sel.Each(func(_ int, s *goquery.Selection) {
		if n := len(strings.TrimSpace(s.Text())); n > bestLen {
			best, bestLen = s, n
		}
	})
	return best
}

func normalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
