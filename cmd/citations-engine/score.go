// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citations-engine/internal/quality"
	"github.com/pdiddy/citations-engine/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score URL...",
	Short: "Print the quality tier of one or more URLs",
	Long: `Score classifies each URL by domain credibility: primary (official,
regulatory and standards bodies), reputable news, known publishers, general
web, and unverified when no publication date is known. Pass --dated=false
to score a URL as if it carried no date.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dated, _ := cmd.Flags().GetBool("dated")
		for _, u := range args {
			tier := quality.Score(u, dated)
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s  %-28s  %s\n", tier, types.DomainOf(u), u)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().Bool("dated", true, "score as if the page has a known publication date")
	rootCmd.AddCommand(scoreCmd)
}
