// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// Confidence is the coarse trust level attached to a composed answer.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Valid reports whether c is one of the three contract literals.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// SourceDescriptor identifies one cited document in the answer.
type SourceDescriptor struct {
	Title  string `json:"title" yaml:"title"`
	Domain string `json:"domain" yaml:"domain"`
	URL    string `json:"url" yaml:"url"`
	Date   Date   `json:"date" yaml:"date"`

	Tier       QualityTier `json:"-" yaml:"tier,omitempty"`
	Attachment bool        `json:"-" yaml:"attachment,omitempty"`
}

// Bullet is one claim in the answer. SourceRef is the URL of the source it
// is drawn from; it is not serialized and renders as a "[n]" suffix.
type Bullet struct {
	Text      string
	SourceRef string
	Index     int
}

// String renders the bullet with its one-based source index.
func (b Bullet) String() string {
	if b.Index <= 0 {
		return b.Text
	}
	return fmt.Sprintf("%s [%d]", b.Text, b.Index)
}

func (b Bullet) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b Bullet) MarshalYAML() (any, error) {
	return b.String(), nil
}

// UnmarshalYAML reads the rendered form. The source reference is not
// recoverable from the text and stays empty.
func (b *Bullet) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	b.Text = s
	return nil
}

func (b *Bullet) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bullet must be a string: %w", err)
	}
	b.Text = s
	return nil
}

// Method describes how an answer was produced.
type Method struct {
	Queries []string `json:"queries" yaml:"queries"`

	// Hops is the number of fetch attempts made.
	Hops int `json:"hops" yaml:"hops"`

	// Notes is a "; "-joined list of shortfalls and failures.
	Notes string `json:"notes" yaml:"notes"`
}

// ComposedAnswer is the single output of a retrieval request.
type ComposedAnswer struct {
	Summary    string             `json:"summary" yaml:"summary"`
	Bullets    []Bullet           `json:"bullets" yaml:"bullets"`
	Quotes     []Quote            `json:"quotes" yaml:"quotes"`
	Sources    []SourceDescriptor `json:"sources" yaml:"sources"`
	Method     Method             `json:"method" yaml:"method"`
	Confidence Confidence         `json:"confidence" yaml:"confidence"`
}
