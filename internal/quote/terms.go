// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quote

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true, "been": true, "before": true,
	"being": true, "but": true, "by": true, "can": true, "could": true, "did": true, "do": true,
	"does": true, "doing": true, "for": true, "from": true, "get": true, "got": true, "had": true,
	"has": true, "have": true, "how": true, "i": true, "if": true, "in": true, "into": true,
	"is": true, "it": true, "its": true, "me": true, "much": true, "many": true, "my": true,
	"not": true, "now": true, "of": true, "on": true, "or": true, "our": true, "over": true,
	"said": true, "say": true, "says": true, "should": true, "so": true, "some": true,
	"tell": true, "than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true, "those": true,
	"to": true, "up": true, "us": true, "was": true, "we": true, "were": true, "what": true,
	"whats": true, "when": true, "where": true, "which": true, "while": true, "who": true,
	"whom": true, "why": true, "will": true, "with": true, "would": true, "you": true, "your": true,
}

// Terms returns the distinct content words of s in first-seen order:
// lowercased, split on anything that is not a letter or digit, with
// stopwords and single letters removed.
func Terms(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokens(s) {
		if stopwords[tok] || (len([]rune(tok)) < 2 && !isNumber(tok)) {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func tokens(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "'", "")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stem folds a trailing plural "s" so "rates" matches "rate".
func stem(tok string) string {
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		return tok[:len(tok)-1]
	}
	return tok
}

func isNumber(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return tok != ""
}

// relevance counts how many of terms appear in text.
func relevance(text string, terms []string) int {
	if len(terms) == 0 {
		return 0
	}
	present := make(map[string]bool)
	for _, tok := range tokens(text) {
		present[stem(tok)] = true
	}
	n := 0
	for _, t := range terms {
		if present[stem(t)] {
			n++
		}
	}
	return n
}
