// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// FormatMarkdown writes a readable report of answer to w.
func FormatMarkdown(answer types.ComposedAnswer, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "## Summary\n\n%s\n\n", answer.Summary)

	if len(answer.Bullets) > 0 {
		b.WriteString("## Key Points\n\n")
		for _, bullet := range answer.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
		b.WriteString("\n")
	}

	if len(answer.Quotes) > 0 {
		b.WriteString("## Supporting Quotes\n\n")
		for i, q := range answer.Quotes {
			fmt.Fprintf(&b, "%d. \"%s\"\n", i+1, q.Text)
			fmt.Fprintf(&b, "   - Source: %s\n", q.SourceTitle)
			fmt.Fprintf(&b, "   - Date: %s\n", orNA(q.Date.String()))
			fmt.Fprintf(&b, "   - URL: %s\n", q.SourceURL)
			if q.Locator != "" {
				fmt.Fprintf(&b, "   - Location: %s\n", q.Locator)
			}
		}
		b.WriteString("\n")
	}

	if len(answer.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for i, s := range answer.Sources {
			fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, s.Title, s.Domain)
			fmt.Fprintf(&b, "   - Date: %s\n", orNA(s.Date.String()))
			fmt.Fprintf(&b, "   - URL: %s\n", s.URL)
		}
		b.WriteString("\n")
	}

	b.WriteString("## How I Searched\n\n")
	fmt.Fprintf(&b, "- **Queries**: %s\n", strings.Join(answer.Method.Queries, ", "))
	fmt.Fprintf(&b, "- **Fetches**: %d\n", answer.Method.Hops)
	fmt.Fprintf(&b, "- **Notes**: %s\n", orNA(answer.Method.Notes))
	fmt.Fprintf(&b, "- **Confidence**: %s\n", answer.Confidence)

	_, err := io.WriteString(w, b.String())
	return err
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
