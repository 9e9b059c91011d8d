// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citations-engine/internal/httputil"
	"github.com/pdiddy/citations-engine/internal/quote"
	"github.com/pdiddy/citations-engine/internal/retrieval"
	"github.com/pdiddy/citations-engine/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Fetch one page and show its extracted metadata and quotes",
	Long: `Fetch downloads a single URL through the rate-limited client, extracts
the main content and prints its title, publication date, author and quality
tier. With --question, candidate quotes relevant to the question are listed.
No search provider key is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	question, _ := cmd.Flags().GetString("question")
	chars, _ := cmd.Flags().GetInt("quote-chars")
	maxQuotes, _ := cmd.Flags().GetInt("max-quotes")

	tk := &retrieval.DefaultToolkit{Client: httputil.NewClient(cfg.HTTP)}
	ctx := logger.WithContext(context.Background())

	doc, err := fetchDocument(ctx, tk, args[0])
	if err != nil {
		return err
	}

	var quotes []types.Quote
	if question != "" {
		quotes = tk.ExtractQuotes(*doc, question, quote.Options{MaxChars: chars, MaxQuotes: maxQuotes})
	}
	printDocument(os.Stdout, doc, quotes)
	return nil
}

// fetchDocument fetches and extracts url the way the pipeline does for one
// candidate, without a search result to fall back on.
func fetchDocument(ctx context.Context, tk retrieval.Toolkit, url string) (*types.FetchedDocument, error) {
	resp, err := tk.Fetch(ctx, url)
	if err != nil {
		if fe, ok := httputil.AsFetchError(err); ok {
			return nil, fmt.Errorf("fetching %s: %s (%s)", url, fe.Detail(), fe.Reason())
		}
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	page, err := tk.ExtractContent(resp.Body, resp.ContentType)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", url, err)
	}

	doc := &types.FetchedDocument{
		URL:         url,
		Title:       page.Title,
		FullText:    page.Text,
		Author:      page.Author,
		Published:   page.Published,
		HTTPStatus:  resp.Status,
		ContentType: resp.ContentType,
		Success:     true,
	}
	doc.Tier = tk.ScoreQuality(url, !doc.Published.IsZero())
	return doc, nil
}

func printDocument(w io.Writer, doc *types.FetchedDocument, quotes []types.Quote) {
	fmt.Fprintf(w, "URL:     %s\n", doc.URL)
	fmt.Fprintf(w, "Title:   %s\n", orDash(doc.Title))
	fmt.Fprintf(w, "Date:    %s\n", orDash(doc.Published.String()))
	fmt.Fprintf(w, "Author:  %s\n", orDash(doc.Author))
	fmt.Fprintf(w, "Tier:    %s\n", doc.Tier)
	fmt.Fprintf(w, "Status:  %d (%s)\n", doc.HTTPStatus, orDash(doc.ContentType))
	fmt.Fprintf(w, "Length:  %d characters\n", len([]rune(doc.FullText)))

	if len(quotes) == 0 {
		return
	}
	fmt.Fprintln(w, "\nQuotes:")
	for i, q := range quotes {
		fmt.Fprintf(w, "%d. %q (offset %d)\n", i+1, q.Text, q.Offset)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	d := types.DefaultBudget()
	fetchCmd.Flags().String("question", "", "list candidate quotes relevant to this question")
	fetchCmd.Flags().Int("quote-chars", d.QuoteCharLimit, "maximum quote length in characters")
	fetchCmd.Flags().Int("max-quotes", d.MaxQuotes, "maximum quotes to list")

	rootCmd.AddCommand(fetchCmd)
}
