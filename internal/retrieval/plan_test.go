// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citations-engine/internal/quality"
	"github.com/pdiddy/citations-engine/internal/quote"
	"github.com/pdiddy/citations-engine/internal/search"
	"github.com/pdiddy/citations-engine/pkg/types"
)

func quoteOpts(maxChars int) quote.Options {
	return quote.Options{MaxChars: maxChars}
}

func queries(reqs []search.Request) []string {
	var out []string
	for _, r := range reqs {
		out = append(out, r.QueryString())
	}
	return out
}

func TestPlanQuick(t *testing.T) {
	budget := types.RetrievalBudget{RecencyWindowDays: 14}.WithDefaults()
	reqs := planQuick("  What is the  ECB deposit rate? ", budget, map[string]bool{})

	assert.Equal(t, []string{
		"What is the ECB deposit rate?",
		"ecb deposit rate",
		"ecb deposit rate official",
	}, queries(reqs))
	for _, r := range reqs {
		assert.Equal(t, 14, r.RecencyDays)
		assert.Equal(t, budget.MaxResults, r.MaxResults)
	}
}

func TestPlanQuick_CapsAndDeduplicates(t *testing.T) {
	budget := types.RetrievalBudget{MaxSearches: 2}.WithDefaults()
	reqs := planQuick("inflation", budget, map[string]bool{})
	assert.Equal(t, []string{"inflation", "inflation official"}, queries(reqs))

	one := types.RetrievalBudget{MaxSearches: 1}.WithDefaults()
	assert.Len(t, planQuick("What is the ECB deposit rate?", one, map[string]bool{}), 1)
}

func TestPlanQuick_StopwordsOnly(t *testing.T) {
	reqs := planQuick("what is it?", types.DefaultBudget(), map[string]bool{})
	assert.Equal(t, []string{"what is it?", "what is it? official"}, queries(reqs))
}

func TestPlanDeep(t *testing.T) {
	issued := map[string]bool{}
	budget := types.DefaultBudget()
	quick := planQuick("What is the ECB deposit rate?", budget, issued)
	assert.Len(t, quick, 3)

	relaxed := types.RetrievalBudget{DeepSearches: 3}.WithDefaults().Relaxed()
	deep := planDeep("What is the ECB deposit rate?", relaxed, testNow, issued)
	require.Len(t, deep, 3)
	assert.Equal(t, "ecb deposit rate 2024", deep[0].Query)
	assert.Equal(t, quality.PrimarySites(), deep[1].Sites)
	assert.Equal(t, "What is the ECB deposit rate? latest", deep[2].Query)

	again := planDeep("What is the ECB deposit rate?", relaxed, testNow, issued)
	assert.Empty(t, again, "already issued queries are not repeated")
}

func TestPlanDeep_YearAlreadyPresent(t *testing.T) {
	budget := types.DefaultBudget().Relaxed()
	deep := planDeep("GDP growth 2024", budget, testNow, map[string]bool{})
	assert.Equal(t, "gdp growth 2024", deep[0].Query)
}
