// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citations-engine/internal/logging"
	"github.com/pdiddy/citations-engine/internal/quality"
	"github.com/pdiddy/citations-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one web search and show the quality-ranked results",
	Long: `Search issues a single query to the configured provider and prints the
results ranked by source quality tier, then recency. It runs no fetches and
is useful for checking provider configuration and ranking.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tk, err := newToolkit(cfg)
	if err != nil {
		return err
	}

	req := search.Request{Query: strings.Join(args, " ")}
	req.RecencyDays, _ = cmd.Flags().GetInt("recency-days")
	req.Sites, _ = cmd.Flags().GetStringSlice("site")
	req.ExcludeSites, _ = cmd.Flags().GetStringSlice("exclude-site")
	req.MaxResults, _ = cmd.Flags().GetInt("max-results")

	ctx := logger.WithContext(context.Background())
	start := time.Now()
	results, err := tk.Search(ctx, req)
	logging.SearchQuery(&logger, req.QueryString(), len(results), time.Since(start), err)
	if err != nil {
		return err
	}
	results, _ = search.Deduplicate(results)
	results = quality.Rank(results)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(results, os.Stdout)
	}
	search.FormatTable(results, os.Stdout)
	return nil
}

func init() {
	searchCmd.Flags().Int("recency-days", 0, "restrict results to roughly the last N days")
	searchCmd.Flags().StringSlice("site", nil, "restrict results to these domains or suffixes")
	searchCmd.Flags().StringSlice("exclude-site", nil, "exclude results from these domains")
	searchCmd.Flags().Int("max-results", 10, "results requested from the provider")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
