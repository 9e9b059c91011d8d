// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quote

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citations-engine/pkg/types"
)

func doc(text string) types.FetchedDocument {
	return types.FetchedDocument{
		URL:      "https://www.example.gov/release",
		Title:    "Release",
		FullText: text,
		Tier:     types.TierPrimary,
		Success:  true,
	}
}

func assertVerbatim(t *testing.T, d types.FetchedDocument, quotes []types.Quote, limit int) {
	t.Helper()
	for _, q := range quotes {
		assert.LessOrEqual(t, utf8.RuneCountInString(q.Text), limit, "quote %q too long", q.Text)
		require.LessOrEqual(t, q.Offset+len(q.Text), len(d.FullText))
		assert.Equal(t, d.FullText[q.Offset:q.Offset+len(q.Text)], q.Text)
	}
}

func TestExtract_OrdersByRelevanceThenPosition(t *testing.T) {
	d := doc("The central bank raised interest rates by a quarter point on Tuesday. " +
		"Markets were calm after the announcement came out. " +
		"Inflation remains above the target set by the central bank.")

	quotes := Extract(d, "Did the central bank raise interest rates?", Options{MaxChars: 120, MaxQuotes: 4})
	require.Len(t, quotes, 2)

	assert.Equal(t, "The central bank raised interest rates by a quarter point on Tuesday.", quotes[0].Text)
	assert.Equal(t, 4, quotes[0].Relevance)
	assert.Equal(t, "Inflation remains above the target set by the central bank.", quotes[1].Text)
	assert.Equal(t, 2, quotes[1].Relevance)

	assert.Equal(t, d.URL, quotes[0].SourceURL)
	assert.Equal(t, d.Title, quotes[0].SourceTitle)
	assert.Equal(t, types.TierPrimary, quotes[0].Tier)
	assert.Equal(t, "", quotes[0].Locator)
	assertVerbatim(t, d, quotes, 120)
}

func TestExtract_CutsLongSentenceAtClauseBoundary(t *testing.T) {
	d := doc("Officials confirmed the policy change, which had been widely expected by analysts and investors across the region for many months now.")

	quotes := Extract(d, "policy change", Options{MaxChars: 60})
	require.Len(t, quotes, 1)
	assert.Equal(t, "Officials confirmed the policy change", quotes[0].Text)
	assertVerbatim(t, d, quotes, 60)
}

func TestExtract_CutsAtDash(t *testing.T) {
	d := doc("The vaccine rollout expanded to teenagers - a group that officials had long said would come last in the national schedule.")

	quotes := Extract(d, "vaccine rollout", Options{MaxChars: 50})
	require.Len(t, quotes, 1)
	assert.Equal(t, "The vaccine rollout expanded to teenagers", quotes[0].Text)
}

func TestExtract_DropsLongSentenceWithoutBoundary(t *testing.T) {
	d := doc("Analysts expected the regulator to approve the merger without conditions despite significant opposition from several consumer advocacy groups.")

	quotes := Extract(d, "regulator merger", Options{MaxChars: 60})
	assert.Empty(t, quotes)
}

func TestExtract_DropsShortAndNonProse(t *testing.T) {
	d := doc("Solar rose. " +
		"| 2023 | 45.2% | 38.1% | 12.9% | 77.0% | 88.4% | (solar) |\n\n" +
		"Solar capacity additions reached a record high last year.")

	quotes := Extract(d, "solar", Options{MaxChars: 120})
	require.Len(t, quotes, 1)
	assert.Equal(t, "Solar capacity additions reached a record high last year.", quotes[0].Text)
}

func TestExtract_RequiresRelevanceWhenQuestionHasTerms(t *testing.T) {
	d := doc("Nothing in this sentence is about the topic at hand. Nor is there anything here that matches.")
	assert.Empty(t, Extract(d, "semiconductor tariffs", Options{MaxChars: 120}))
}

func TestExtract_NoTermsKeepsPositionOrderAndCap(t *testing.T) {
	d := doc("First sentence is long enough to keep. Second sentence is also long enough. Third sentence will be capped away.")

	quotes := Extract(d, "what is it?", Options{MaxChars: 120, MaxQuotes: 2})
	require.Len(t, quotes, 2)
	assert.Equal(t, "First sentence is long enough to keep.", quotes[0].Text)
	assert.Equal(t, "Second sentence is also long enough.", quotes[1].Text)
	assert.Less(t, quotes[0].Offset, quotes[1].Offset)
}

func TestExtract_PageLocators(t *testing.T) {
	text, starts := JoinPages([]string{
		"Page one talks about the solar capacity growth in detail.",
		"Page two covers solar subsidies for households in the region.",
	})
	d := doc(text)

	quotes := Extract(d, "solar", Options{MaxChars: 120, PageStarts: starts})
	require.Len(t, quotes, 2)
	assert.Equal(t, "p.1", quotes[0].Locator)
	assert.Equal(t, "p.2", quotes[1].Locator)
	assertVerbatim(t, d, quotes, 120)
}

func TestExtract_CountsRunesNotBytes(t *testing.T) {
	d := doc("Die Zentralbank hat die Zinsen erhöht, während die Inflation weiter über dem Ziel lag.")

	quotes := Extract(d, "Zentralbank Zinsen", Options{MaxChars: 40})
	require.Len(t, quotes, 1)
	assert.Equal(t, "Die Zentralbank hat die Zinsen erhöht", quotes[0].Text)
	assertVerbatim(t, d, quotes, 40)
}

func TestExtract_EmptyInputs(t *testing.T) {
	assert.Empty(t, Extract(doc(""), "anything", Options{MaxChars: 120}))
	assert.Empty(t, Extract(doc("A perfectly fine sentence about anything at all."), "anything", Options{}))
}

func TestExtract_QuotesAlwaysWithinLimitAndVerbatim(t *testing.T) {
	text := strings.Join([]string{
		"Regulators said on Monday that the new capital rules, first proposed two years ago, would take effect in stages; banks will have until 2027 to comply.",
		"The rules apply to lenders with more than $100 billion in assets - roughly thirty institutions - and were softened after industry pushback.",
		"Critics, including several senators, argued the changes went too far: they weakened protections that had been added after the last crisis.",
		"Supporters countered that the rules remained among the toughest in the world.",
	}, " ")
	d := doc(text)

	for _, limit := range []int{20, 35, 50, 80, 120, 200} {
		quotes := Extract(d, "capital rules banks regulators", Options{MaxChars: limit})
		assertVerbatim(t, d, quotes, limit)
		for _, q := range quotes {
			assert.GreaterOrEqual(t, utf8.RuneCountInString(q.Text), types.MinQuoteChars)
		}
	}
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"latest", "gdp", "growth", "figure", "germany", "2024"},
		Terms("What's the latest GDP growth figure for Germany in 2024?"))
	assert.Empty(t, Terms("what is it?"))
	assert.Equal(t, []string{"rates"}, Terms("rates rates RATES"))
}

func TestExtract_KeepsAbbreviationsInsideSentence(t *testing.T) {
	d := doc("The U.S. Securities and Exchange Commission said the climate disclosure rule takes effect in 2026.")

	quotes := Extract(d, "When does the SEC climate disclosure rule take effect?", Options{MaxChars: 120})
	require.Len(t, quotes, 1)
	assert.Equal(t, d.FullText, quotes[0].Text)
	assert.Equal(t, 0, quotes[0].Offset)
}

func TestSentences_Abbreviations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"initials", "The U.S. agency agreed. Markets rose.", []string{"The U.S. agency agreed.", "Markets rose."}},
		{"titles", "Dr. Smith met Mr. Jones today. They agreed.", []string{"Dr. Smith met Mr. Jones today.", "They agreed."}},
		{"latin", "Some agencies, e.g. the SEC, objected. Others did not.", []string{"Some agencies, e.g. the SEC, objected.", "Others did not."}},
		{"single initial", "Report by J. Doe was filed. It passed.", []string{"Report by J. Doe was filed.", "It passed."}},
		{"acronym still ends", "The rules apply across the EU. Enforcement starts later.", []string{"The rules apply across the EU.", "Enforcement starts later."}},
		{"ellipsis still ends", "It was delayed... Then it passed.", []string{"It was delayed...", "Then it passed."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, sp := range sentences(tt.text) {
				got = append(got, tt.text[sp.start:sp.end])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
