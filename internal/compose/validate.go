// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// ErrInvalidAnswer is wrapped by every Validate failure.
var ErrInvalidAnswer = errors.New("invalid composed answer")

// Validate checks the output contract: quote length, sources covering every
// quoted or bulleted URL, ISO dates and a literal confidence value. All
// problems are reported together.
func Validate(answer types.ComposedAnswer, budget types.RetrievalBudget) error {
	errs := problems(answer, budget.WithDefaults())
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidAnswer, errors.Join(errs...))
}

func problems(answer types.ComposedAnswer, budget types.RetrievalBudget) []error {
	var errs []error
	urls := make(map[string]bool, len(answer.Sources))
	for i, s := range answer.Sources {
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("source %d has no url", i))
		}
		if urls[s.URL] {
			errs = append(errs, fmt.Errorf("source %s listed twice", s.URL))
		}
		urls[s.URL] = true
		if err := checkDate(s.Date); err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", s.URL, err))
		}
	}

	for i, q := range answer.Quotes {
		if n := utf8.RuneCountInString(q.Text); n > budget.QuoteCharLimit {
			errs = append(errs, fmt.Errorf("quote %d is %d characters, limit %d", i, n, budget.QuoteCharLimit))
		}
		if !urls[q.SourceURL] {
			errs = append(errs, fmt.Errorf("quote %d cites %s which is not in sources", i, q.SourceURL))
		}
		if err := checkDate(q.Date); err != nil {
			errs = append(errs, fmt.Errorf("quote %d: %w", i, err))
		}
	}

	for i, b := range answer.Bullets {
		if b.SourceRef != "" && !urls[b.SourceRef] {
			errs = append(errs, fmt.Errorf("bullet %d cites %s which is not in sources", i, b.SourceRef))
		}
	}

	if !answer.Confidence.Valid() {
		errs = append(errs, fmt.Errorf("confidence %q is not Low, Medium or High", answer.Confidence))
	}

	return errs
}

// repair makes answer satisfy Validate: dates are truncated to calendar
// days, empty and duplicate sources are dropped, quotes that are too long
// or cite no listed source are dropped, bullets are rebuilt from the
// remaining quotes and an unknown confidence becomes Low.
func repair(answer types.ComposedAnswer, budget types.RetrievalBudget) types.ComposedAnswer {
	sources := make([]types.SourceDescriptor, 0, len(answer.Sources))
	index := make(map[string]int, len(answer.Sources))
	for _, s := range answer.Sources {
		if s.URL == "" || index[s.URL] > 0 {
			continue
		}
		s.Date = types.NewDate(s.Date.Time)
		sources = append(sources, s)
		index[s.URL] = len(sources)
	}

	quotes := make([]types.Quote, 0, len(answer.Quotes))
	for _, q := range answer.Quotes {
		if index[q.SourceURL] == 0 || utf8.RuneCountInString(q.Text) > budget.QuoteCharLimit {
			continue
		}
		q.Date = types.NewDate(q.Date.Time)
		quotes = append(quotes, q)
	}

	answer.Sources = sources
	answer.Quotes = quotes
	answer.Bullets = bullets(quotes, index)
	if !answer.Confidence.Valid() {
		answer.Confidence = types.ConfidenceLow
	}
	return answer
}

// checkDate rejects dates that would not round-trip through the ISO form.
func checkDate(d types.Date) error {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	parsed, err := time.Parse(types.DateLayout, s)
	if err != nil || !parsed.Equal(d.Time) {
		return fmt.Errorf("date %s is not a calendar day", s)
	}
	return nil
}
