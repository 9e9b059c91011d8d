// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quote selects short verbatim excerpts from document text that
// are relevant to a question.
package quote

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// Prose filter thresholds.
const (
	MaxSymbolRatio = 0.3
	MaxDigitRatio  = 0.4
)

// Options bounds extraction.
type Options struct {
	// MaxChars is the maximum quote length in runes.
	MaxChars int

	// MinChars drops shorter spans. Defaults to types.MinQuoteChars.
	MinChars int

	// MaxQuotes caps the number of quotes returned. Zero means no cap.
	MaxQuotes int

	// PageStarts holds the byte offset in FullText where each page begins.
	// When set, quotes carry a "p.N" locator.
	PageStarts []int
}

type span struct {
	start, end int
}

// Extract returns up to MaxQuotes non-overlapping quotes from doc.FullText,
// ordered by relevance to question and then by position. Every quote's
// Text is exactly doc.FullText[Offset:Offset+len(Text)]. An empty result is
// normal.
func Extract(doc types.FetchedDocument, question string, opts Options) []types.Quote {
	text := doc.FullText
	if text == "" || opts.MaxChars <= 0 {
		return nil
	}
	minChars := opts.MinChars
	if minChars <= 0 {
		minChars = types.MinQuoteChars
	}
	terms := Terms(question)

	var quotes []types.Quote
	for _, sp := range sentences(text) {
		sp, ok := fit(text, sp, opts.MaxChars)
		if !ok {
			continue
		}
		candidate := text[sp.start:sp.end]
		if utf8.RuneCountInString(candidate) < minChars || !isProse(candidate) {
			continue
		}
		rel := relevance(candidate, terms)
		if len(terms) > 0 && rel == 0 {
			continue
		}
		quotes = append(quotes, types.Quote{
			Text:        candidate,
			SourceTitle: doc.Title,
			SourceURL:   doc.URL,
			Date:        doc.Published,
			Locator:     locator(opts.PageStarts, sp.start),
			Offset:      sp.start,
			Tier:        doc.Tier,
			Relevance:   rel,
		})
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].Relevance != quotes[j].Relevance {
			return quotes[i].Relevance > quotes[j].Relevance
		}
		return quotes[i].Offset < quotes[j].Offset
	})
	if opts.MaxQuotes > 0 && len(quotes) > opts.MaxQuotes {
		quotes = quotes[:opts.MaxQuotes]
	}
	return quotes
}

// sentences splits text into trimmed sentence spans. A blank line always
// ends a sentence; otherwise a run of . ! or ? followed by whitespace or
// the end of text does, unless the single period closes an abbreviation.
func sentences(text string) []span {
	var out []span
	start := 0
	emit := func(end int) {
		if s, ok := trim(text, span{start, end}); ok {
			out = append(out, s)
		}
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == '\n' && i+1 < len(text) && text[i+1] == '\n':
			emit(i)
			start = i + 2
			i += 2
			continue
		case r == '.' || r == '!' || r == '?':
			j := i + size
			for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?' || text[j] == '"' || text[j] == ')') {
				j++
			}
			if r == '.' && j == i+size && abbreviationAt(text, i) {
				i = j
				continue
			}
			if j >= len(text) || isSpaceAt(text, j) {
				emit(j)
				start = j
			}
			i = j
			continue
		}
		i += size
	}
	emit(len(text))
	return out
}

// fit returns sp unchanged when it is short enough, otherwise the longest
// prefix ending at a clause boundary that fits within maxChars.
func fit(text string, sp span, maxChars int) (span, bool) {
	if utf8.RuneCountInString(text[sp.start:sp.end]) <= maxChars {
		return sp, true
	}
	best := -1
	runes := 0
	for i := sp.start; i < sp.end; {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == ',' || r == ';' || r == ':':
			// Boundary before the punctuation.
			if runes <= maxChars {
				best = i
			}
		case r == ' ' && dashAt(text, i+size, sp.end):
			if runes <= maxChars {
				best = i
			}
		}
		runes++
		if runes > maxChars+1 {
			break
		}
		i += size
	}
	if best < 0 {
		return span{}, false
	}
	return trim(text, span{sp.start, best})
}

// dashAt reports whether text[i:] starts a " - " style clause dash.
func dashAt(text string, i, limit int) bool {
	if i >= limit {
		return false
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	if r != '-' && r != '–' && r != '—' {
		return false
	}
	return i+size < limit && text[i+size] == ' '
}

func trim(text string, sp span) (span, bool) {
	for sp.start < sp.end {
		r, size := utf8.DecodeRuneInString(text[sp.start:])
		if !unicode.IsSpace(r) {
			break
		}
		sp.start += size
	}
	for sp.end > sp.start {
		r, size := utf8.DecodeLastRuneInString(text[sp.start:sp.end])
		if !unicode.IsSpace(r) {
			break
		}
		sp.end -= size
	}
	return sp, sp.end > sp.start
}

// abbreviations never end a sentence. Keys are lowercase, without the
// final period.
var abbreviations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true, "sr": true, "jr": true,
	"st": true, "vs": true, "no": true, "gen": true, "gov": true, "sen": true, "rep": true,
	"e.g": true, "i.e": true, "cf": true,
}

// abbreviationAt reports whether the period at text[dot] closes an
// abbreviation: a listed word, or initials such as "J." and "U.S.".
func abbreviationAt(text string, dot int) bool {
	start := dot
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsSpace(r) || r == '(' || r == '"' {
			break
		}
		start -= size
	}
	tok := text[start:dot]
	if tok == "" {
		return false
	}
	if abbreviations[strings.ToLower(tok)] {
		return true
	}
	for _, seg := range strings.Split(tok, ".") {
		r, size := utf8.DecodeRuneInString(seg)
		if size != len(seg) || !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isSpaceAt(text string, i int) bool {
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsSpace(r)
}

// isProse rejects spans dominated by symbols or digits, which are usually
// tables, code or navigation residue.
func isProse(s string) bool {
	total, symbols, digits := 0, 0, 0
	for _, r := range s {
		total++
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r), unicode.IsSpace(r):
		default:
			symbols++
		}
	}
	if total == 0 {
		return false
	}
	return float64(symbols)/float64(total) <= MaxSymbolRatio &&
		float64(digits)/float64(total) <= MaxDigitRatio
}

func locator(pageStarts []int, offset int) string {
	if len(pageStarts) == 0 {
		return ""
	}
	page := sort.Search(len(pageStarts), func(i int) bool { return pageStarts[i] > offset })
	if page == 0 {
		page = 1
	}
	return fmt.Sprintf("p.%d", page)
}

// JoinPages concatenates pages the way attachment documents are built and
// returns the byte offset where each page starts.
func JoinPages(pages []string) (string, []int) {
	var b strings.Builder
	starts := make([]int, 0, len(pages))
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		starts = append(starts, b.Len())
		b.WriteString(p)
	}
	return b.String(), starts
}
