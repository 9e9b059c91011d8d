// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2024, time.July, 12, 18, 30, 0, 0, time.FixedZone("X", -5*3600)))
	assert.Equal(t, "2024-07-12", d.String(), "time of day is dropped")

	data, err := json.Marshal(struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}{D: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-07-12","z":""}`, string(data))

	var back struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.D.Equal(d.Time))
	assert.True(t, back.Z.IsZero())

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"12/07/2024"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`20240712`), &bad))
}

func TestNewDate_KeepsLocalDay(t *testing.T) {
	late := time.Date(2024, time.March, 7, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "2024-03-07", NewDate(late).String())

	early := time.Date(2024, time.March, 8, 1, 15, 0, 0, time.FixedZone("JST", 9*3600))
	assert.Equal(t, "2024-03-08", NewDate(early).String())
	assert.Equal(t, time.UTC, NewDate(early).Location())
}

func TestDate_YAML(t *testing.T) {
	src := Attachment{Name: "minutes.pdf", Date: NewDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), Pages: []string{"one"}}
	data, err := yaml.Marshal(src)
	require.NoError(t, err)

	var back Attachment
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, "2024-03-01", back.Date.String())
}

func TestDate_After(t *testing.T) {
	early := NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	late := NewDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, late.After(early))
	assert.False(t, early.After(late))
	assert.True(t, early.After(Date{}), "unknown dates sort last")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestBudget_WithDefaults(t *testing.T) {
	b := RetrievalBudget{MinSources: 3, RequirePrimarySource: true}.WithDefaults()
	d := DefaultBudget()
	assert.Equal(t, 3, b.MinSources)
	assert.True(t, b.RequirePrimarySource)
	assert.Equal(t, d.MaxSearches, b.MaxSearches)
	assert.Equal(t, d.LatencyBudget, b.LatencyBudget)
	assert.Zero(t, b.RecencyWindowDays)
	assert.NoError(t, b.Validate())
}

func TestBudget_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RetrievalBudget)
	}{
		{"no searches", func(b *RetrievalBudget) { b.MaxSearches = 0 }},
		{"no fetches", func(b *RetrievalBudget) { b.MaxFetches = -1 }},
		{"no sources", func(b *RetrievalBudget) { b.MinSources = 0 }},
		{"short quotes", func(b *RetrievalBudget) { b.QuoteCharLimit = MinQuoteChars - 1 }},
		{"negative window", func(b *RetrievalBudget) { b.RecencyWindowDays = -1 }},
		{"no latency", func(b *RetrievalBudget) { b.LatencyBudget = 0 }},
		{"negative deep", func(b *RetrievalBudget) { b.DeepFetches = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultBudget()
			tt.mutate(&b)
			err := b.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidBudget))
		})
	}
	assert.NoError(t, DefaultBudget().Validate())
}

func TestBudget_Relaxed(t *testing.T) {
	b := DefaultBudget()
	b.RecencyWindowDays = 30
	r := b.Relaxed()
	assert.Equal(t, b.DeepSearches, r.MaxSearches)
	assert.Equal(t, b.DeepFetches, r.MaxFetches)
	assert.Equal(t, 60, r.RecencyWindowDays)
	assert.Equal(t, b.LatencyBudget, r.LatencyBudget)
	assert.Equal(t, b.MinSources, r.MinSources)
	assert.Equal(t, 30, b.RecencyWindowDays, "receiver is unchanged")

	assert.Zero(t, DefaultBudget().Relaxed().RecencyWindowDays, "no window stays unlimited")
}

func TestBullet(t *testing.T) {
	b := Bullet{Text: "Rates were held.", SourceRef: "https://ecb.europa.eu/x", Index: 2}
	assert.Equal(t, "Rates were held. [2]", b.String())
	assert.Equal(t, "plain", Bullet{Text: "plain"}.String())

	data, err := json.Marshal([]Bullet{b})
	require.NoError(t, err)
	assert.JSONEq(t, `["Rates were held. [2]"]`, string(data))

	var back []Bullet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "Rates were held. [2]", back[0].Text)
	assert.Empty(t, back[0].SourceRef)
}

func TestConfidence_Valid(t *testing.T) {
	assert.True(t, ConfidenceHigh.Valid())
	assert.True(t, ConfidenceLow.Valid())
	assert.False(t, Confidence("high").Valid())
	assert.False(t, Confidence("").Valid())
}

func TestDomainOf(t *testing.T) {
	tests := map[string]string{
		"https://www.SEC.gov/news":      "sec.gov",
		"http://blog.example.com:8080/": "blog.example.com",
		"attachment://minutes.pdf":      "minutes.pdf",
		"not a url":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, DomainOf(in), in)
	}
}

func TestRetrievalState_RecordDocument(t *testing.T) {
	s := NewRetrievalState("q")
	s.RecordDocument(&FetchedDocument{URL: "https://a.gov/1", Domain: "a.gov", Success: true, Tier: TierPrimary})
	s.RecordDocument(&FetchedDocument{URL: "https://b.com/1", FailureReason: FailureHTTPError, Detail: "page not found"})
	s.RecordDocument(&FetchedDocument{URL: "https://c.com/1", FailureReason: FailureTimeout})
	s.RecordDocument(&FetchedDocument{URL: "https://a.gov/2", Domain: "a.gov", Success: true})
	s.RecordDocument(&FetchedDocument{URL: "attachment://x", Domain: "x", Success: true, Attachment: true, Tier: TierPrimary})

	assert.Len(t, s.Successful(), 3)
	assert.NotContains(t, s.Documents, "https://b.com/1")
	assert.Equal(t, 1, s.DistinctDomains(), "attachments are not independent sources")
	assert.Equal(t, 1, s.PrimaryCount())
	assert.Equal(t, []string{"https://b.com/1", "https://c.com/1"}, s.SortedFailures())
	assert.Equal(t, "page not found", s.FailureDetails["https://b.com/1"])
	assert.Equal(t, []FailureCount{
		{Reason: FailureHTTPError, Count: 1},
		{Reason: FailureTimeout, Count: 1},
	}, s.FailureCounts())
}

func TestRetrievalState_AddNote(t *testing.T) {
	s := NewRetrievalState("q")
	s.AddNote("a")
	s.AddNote("b")
	s.AddNote("a")
	assert.Equal(t, []string{"a", "b"}, s.Notes)
}
