package assembler

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/astrodocs/missionqa/models"
)

const (
	// MaxPassageChars bounds the body of any single passage so prompt size
	// stays bounded regardless of passage count.
	MaxPassageChars = 1200

	ellipsis = "..."
)

var titleCaser = cases.Title(language.English)

// Label derives the attribution label for a passage. Priority: the source id
// carried by the passage metadata, then a synthesized positional label.
// rank is the 1-based position of the passage in relevance order.
func Label(p models.Passage, rank int) string {
	if p.SourceID != "" {
		return p.SourceID
	}
	return fmt.Sprintf("DOC_%d", rank)
}

// Format merges retrieved passages into a single attributable context block,
// in relevance order. Each passage is emitted as a bracketed header line
// followed by its (possibly truncated) body. An empty input yields an empty
// string; the generator treats that as "no grounding available".
func Format(passages []models.Passage) string {
	if len(passages) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(passages))
	for i, p := range passages {
		var b strings.Builder
		b.WriteString("[")
		b.WriteString(Label(p, i+1))
		b.WriteString("]")
		if desc := describe(p); desc != "" {
			b.WriteString(" (")
			b.WriteString(desc)
			b.WriteString(")")
		}
		b.WriteString("\n")
		b.WriteString(truncate(p.Text))
		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, "\n\n")
}

// describe renders the optional mission/category descriptors in title case
func describe(p models.Passage) string {
	var parts []string
	if p.Mission != "" {
		parts = append(parts, "Mission: "+titleCaser.String(p.Mission))
	}
	if p.Category != "" {
		parts = append(parts, "Category: "+titleCaser.String(p.Category))
	}
	return strings.Join(parts, ", ")
}

func truncate(text string) string {
	if len(text) <= MaxPassageChars {
		return text
	}
	return text[:MaxPassageChars] + ellipsis
}
