// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citations-engine/internal/journal"
	"github.com/pdiddy/citations-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse answers recorded with ask --record",
	Long: `History reads the local run journal, a SQLite database of answers
recorded with ask --record. Use subcommands to list runs, show one answer
or export the journal. The retrieval pipeline never reads the journal.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List recorded runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := journal.Open(viper.GetString("journal.path"))
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), listOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	formatRunTable(os.Stdout, runs)
	return nil
}

func formatRunTable(w io.Writer, runs []journal.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-8s  %-16s  %-6s  %-7s  %s\n", "ID", "Recorded", "Conf", "Sources", "Question")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		question := []rune(r.Question)
		if len(question) > 55 {
			question = append(question[:52], []rune("...")...)
		}
		fmt.Fprintf(w, "%-8s  %-16s  %-6s  %-7d  %s\n",
			id, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Confidence, r.Sources, string(question))
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one recorded answer (ID or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := journal.Open(viper.GetString("journal.path"))
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if strings.EqualFold(format, "markdown") || format == "" {
			fmt.Fprintf(os.Stdout, "# %s\n\n", run.Question)
		}
		return writeAnswer(os.Stdout, run.Answer, format)
	},
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := journal.Open(viper.GetString("journal.path"))
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		run, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(ctx, run.ID); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted run %s\n", run.ID)
		return nil
	},
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export recorded runs to YAML or JSON",
	Long: `Export writes every recorded run (or the subset matching the filter
flags) with its full answer to stdout, or to --output when given.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := journal.Open(viper.GetString("journal.path"))
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	opts := listOptsFromFlags(cmd, args)
	ctx := context.Background()
	switch format {
	case "yaml", "":
		err = store.ExportYAML(ctx, w, opts)
	case "json":
		err = store.ExportJSON(ctx, w, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

// --- shared helpers ---

func listOptsFromFlags(cmd *cobra.Command, args []string) journal.ListOptions {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	domain, _ := cmd.Flags().GetString("domain")
	confidence, _ := cmd.Flags().GetString("confidence")
	limit, _ := cmd.Flags().GetInt("limit")
	return journal.ListOptions{
		Query:      query,
		Domain:     domain,
		Confidence: parseConfidence(confidence),
		Limit:      limit,
	}
}

// parseConfidence accepts any casing of high, medium or low.
func parseConfidence(s string) types.Confidence {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return types.Confidence(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "match question or summary text")
	cmd.Flags().String("domain", "", "keep runs that cited this domain")
	cmd.Flags().String("confidence", "", "filter by confidence: high, medium, low")
}

func init() {
	historyCmd.PersistentFlags().String("journal", "", "journal database path (default from journal.path)")
	_ = viper.BindPFlag("journal.path", historyCmd.PersistentFlags().Lookup("journal"))

	addFilterFlags(historyListCmd)
	historyListCmd.Flags().Int("limit", 20, "maximum runs")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyShowCmd.Flags().String("format", "markdown", "output format: markdown, json or yaml")

	addFilterFlags(historyExportCmd)
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
