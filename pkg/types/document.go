// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FailureReason names why a candidate URL produced no usable document.
type FailureReason string

const (
	FailureNone           FailureReason = ""
	FailureTimeout        FailureReason = "timeout"
	FailureUnreachable    FailureReason = "unreachable"
	FailureHTTPError      FailureReason = "http_error"
	FailureRateLimited    FailureReason = "rate_limited"
	FailureNotExtractable FailureReason = "not_extractable"
)

// FetchedDocument is the result of fetching and extracting one URL. It
// lives only for the duration of a single retrieval request.
type FetchedDocument struct {
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`

	// FullText is the cleaned main-content text. Quotes are slices of it.
	FullText string `json:"-" yaml:"-"`

	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Published overrides the search result's date when present.
	Published Date `json:"date" yaml:"date"`

	HTTPStatus  int    `json:"http_status" yaml:"http_status"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`

	// Success is false when FailureReason is set, and only then.
	Success       bool          `json:"success" yaml:"success"`
	FailureReason FailureReason `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`

	// Detail is a human-readable failure message, e.g. a paywall hint for 403.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`

	Domain string      `json:"domain" yaml:"domain"`
	Tier   QualityTier `json:"tier" yaml:"tier"`

	// Rank is the search-ranking position of the URL that produced this document.
	Rank int `json:"-" yaml:"-"`

	// Attachment marks caller-supplied documents that were not fetched.
	Attachment bool `json:"attachment,omitempty" yaml:"attachment,omitempty"`
}

// Quote is a verbatim excerpt of a document's FullText.
type Quote struct {
	// Text is at most the budget's QuoteCharLimit runes long.
	Text        string `json:"text" yaml:"text"`
	SourceTitle string `json:"source" yaml:"source"`
	SourceURL   string `json:"url" yaml:"url"`
	Date        Date   `json:"date" yaml:"date"`

	// Locator is a page number ("p.12") or timestamp ("01:23").
	Locator string `json:"page_or_ts" yaml:"page_or_ts"`

	// Offset is the byte offset of Text within the source FullText.
	Offset int `json:"-" yaml:"-"`

	// Tier of the source document, used to order quotes.
	Tier QualityTier `json:"-" yaml:"-"`

	// Relevance is the number of question terms the quote contains.
	Relevance int `json:"-" yaml:"-"`
}

// Attachment is caller-extracted text (for example PDF pages) supplied with
// a question. Pages are treated as one document whose quotes carry page
// locators.
type Attachment struct {
	Name  string   `json:"name" yaml:"name"`
	URL   string   `json:"url" yaml:"url"`
	Title string   `json:"title" yaml:"title"`
	Date  Date     `json:"date" yaml:"date"`
	Pages []string `json:"pages" yaml:"pages"`
}
