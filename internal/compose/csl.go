// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML form, consumable by Pandoc
// and reference managers.
type CSLItem struct {
	ID             string   `yaml:"id"`
	Type           string   `yaml:"type"`
	Title          string   `yaml:"title"`
	ContainerTitle string   `yaml:"container-title,omitempty"`
	URL            string   `yaml:"URL,omitempty"`
	Issued         *CSLDate `yaml:"issued,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes the answer's sources as a CSL-YAML list. Item IDs are
// "src1", "src2", ... matching the bullet indices.
func FormatCSL(answer types.ComposedAnswer, w io.Writer) error {
	items := make([]CSLItem, len(answer.Sources))
	for i, s := range answer.Sources {
		items[i] = toCSLItem(i+1, s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return err
	}
	return enc.Close()
}

func toCSLItem(index int, s types.SourceDescriptor) CSLItem {
	item := CSLItem{
		ID:             fmt.Sprintf("src%d", index),
		Type:           "webpage",
		Title:          s.Title,
		ContainerTitle: s.Domain,
		URL:            s.URL,
	}
	if s.Attachment {
		item.Type = "document"
		item.ContainerTitle = ""
	}
	if !s.Date.IsZero() {
		item.Issued = &CSLDate{
			DateParts: [][]int{{s.Date.Year(), int(s.Date.Month()), s.Date.Day()}},
		}
	}
	return item
}
