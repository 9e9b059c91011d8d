// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// ExportEntry is one exported run.
type ExportEntry struct {
	ID        string               `json:"id" yaml:"id"`
	Question  string               `json:"question" yaml:"question"`
	CreatedAt string               `json:"created_at" yaml:"created_at"`
	ElapsedMS int64                `json:"elapsed_ms" yaml:"elapsed_ms"`
	Answer    types.ComposedAnswer `json:"answer" yaml:"answer"`
}

const exportLimit = 100000

// ExportYAML writes matching runs to w as a YAML list, newest first.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes matching runs to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]ExportEntry, error) {
	opts.Limit = exportLimit
	rows, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, 0, len(rows))
	for _, row := range rows {
		run, err := s.Get(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ExportEntry{
			ID:        run.ID,
			Question:  run.Question,
			CreatedAt: run.CreatedAt.Format(time.RFC3339),
			ElapsedMS: run.Elapsed.Milliseconds(),
			Answer:    run.Answer,
		})
	}
	return entries, nil
}
