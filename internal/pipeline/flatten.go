package pipeline

import (
	"strings"

	"github.com/dgallion1/reportgest/internal/doctree"
)

// FlattenTree renders a parsed document tree back into heading-marked
// text so the chunker can re-detect chapter boundaries uniformly across
// input formats. Heading depth is capped at level 3.
func FlattenTree(tree *doctree.DocTree) string {
	var sb strings.Builder
	var walk func(nodes []*doctree.DocNode, depth int)
	walk = func(nodes []*doctree.DocNode, depth int) {
		marker := strings.Repeat("#", min(depth, 3))
		for _, n := range nodes {
			if n.Title != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(marker)
				sb.WriteString(" ")
				sb.WriteString(n.Title)
				sb.WriteString("\n")
			}
			if n.Text != "" {
				if sb.Len() > 0 && n.Title == "" {
					sb.WriteString("\n")
				}
				sb.WriteString(n.Text)
				sb.WriteString("\n")
			}
			walk(n.Children, depth+1)
		}
	}
	walk(tree.Children, 1)
	return sb.String()
}
