// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citations-engine/internal/compose"
	"github.com/pdiddy/citations-engine/internal/journal"
	"github.com/pdiddy/citations-engine/internal/retrieval"
	"github.com/pdiddy/citations-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question with quoted, dated sources",
	Long: `Ask runs the retrieval pipeline for one question: plan queries, search,
rank by source quality, fetch pages, extract verbatim quotes and compose an
answer. The answer lists every source with its URL and publication date and
records how the search was performed.

Budget flags override the budget section of the config file. Use --attach
to supply caller-extracted document text (for example PDF pages) as a YAML
or JSON list of attachments; their quotes carry page locators.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	budget := budgetFromFlags(cmd, cfg.Budget.WithDefaults())

	var attachments []types.Attachment
	if path, _ := cmd.Flags().GetString("attach"); path != "" {
		attachments, err = readAttachments(path)
		if err != nil {
			return err
		}
	}

	tk, err := newToolkit(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := retrieval.New(tk, logger).Execute(ctx, question, attachments, budget)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := compose.Validate(res.Answer, budget); err != nil {
		logger.Warn().Err(err).Str("run_id", res.RunID).Msg("composed answer failed validation")
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		af := compose.AnswerFile{
			Question: question,
			RunID:    res.RunID,
			Budget:   budget,
			Answer:   res.Answer,
			Elapsed:  elapsed,
		}
		if err := compose.WriteAnswerFile(path, af); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Answer saved to %s\n", path)
	}

	if record, _ := cmd.Flags().GetBool("record"); record {
		store, err := journal.Open(viper.GetString("journal.path"))
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Record(ctx, res.RunID, question, res.Answer, elapsed); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Recorded run %s\n", res.RunID)
	}

	format, _ := cmd.Flags().GetString("format")
	return writeAnswer(os.Stdout, res.Answer, format)
}

func writeAnswer(w io.Writer, answer types.ComposedAnswer, format string) error {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return compose.FormatMarkdown(answer, w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(answer); err != nil {
			return err
		}
		return enc.Close()
	case "csl":
		return compose.FormatCSL(answer, w)
	default:
		return fmt.Errorf("unsupported format %q: use markdown, json, yaml or csl", format)
	}
}

// budgetFromFlags overlays the budget flags the user set on base.
func budgetFromFlags(cmd *cobra.Command, base types.RetrievalBudget) types.RetrievalBudget {
	f := cmd.Flags()
	if f.Changed("max-searches") {
		base.MaxSearches, _ = f.GetInt("max-searches")
	}
	if f.Changed("max-fetches") {
		base.MaxFetches, _ = f.GetInt("max-fetches")
	}
	if f.Changed("min-sources") {
		base.MinSources, _ = f.GetInt("min-sources")
	}
	if f.Changed("quote-chars") {
		base.QuoteCharLimit, _ = f.GetInt("quote-chars")
	}
	if f.Changed("max-quotes") {
		base.MaxQuotes, _ = f.GetInt("max-quotes")
	}
	if f.Changed("recency-days") {
		base.RecencyWindowDays, _ = f.GetInt("recency-days")
	}
	if f.Changed("latency") {
		base.LatencyBudget, _ = f.GetDuration("latency")
	}
	if f.Changed("require-primary") {
		base.RequirePrimarySource, _ = f.GetBool("require-primary")
	}
	return base
}

func readAttachments(path string) ([]types.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attachments: %w", err)
	}
	var out []types.Attachment
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = json.Unmarshal(data, &out)
	} else {
		err = yaml.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing attachments %s: %w", path, err)
	}
	return out, nil
}

func init() {
	d := types.DefaultBudget()

	askCmd.Flags().String("format", "markdown", "output format: markdown, json, yaml or csl (sources only)")
	askCmd.Flags().String("save", "", "also write the answer, budget and run ID to this YAML file")
	askCmd.Flags().Bool("record", false, "record the answer in the run journal")
	askCmd.Flags().String("attach", "", "YAML or JSON file listing attachments with extracted page text")

	askCmd.Flags().Int("max-searches", d.MaxSearches, "queries issued in the quick pass")
	askCmd.Flags().Int("max-fetches", d.MaxFetches, "fetch attempts in the quick pass")
	askCmd.Flags().Int("min-sources", d.MinSources, "independent domains needed to stop")
	askCmd.Flags().Int("quote-chars", d.QuoteCharLimit, "maximum quote length in characters")
	askCmd.Flags().Int("max-quotes", d.MaxQuotes, "quotes in the answer")
	askCmd.Flags().Int("recency-days", 0, "drop dated results older than this many days (0 = no limit)")
	askCmd.Flags().Duration("latency", d.LatencyBudget, "wall-clock budget for the whole request")
	askCmd.Flags().Bool("require-primary", false, "require a primary source (official or regulatory domain)")

	rootCmd.AddCommand(askCmd)
}
