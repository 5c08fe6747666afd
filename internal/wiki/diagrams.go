package wiki

import (
	"fmt"
	"strings"
)

const maxEdgeLabelRunes = 30

// relationshipDiagram renders the abstractions and their relationships as a
// Mermaid flowchart. Node ids are derived from abstraction indices.
func relationshipDiagram(abstractions []Abstraction, rels []Relationship) Diagram {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	for i, a := range abstractions {
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", nodeID(i), escapeMermaid(a.Name))
	}
	for _, r := range rels {
		if r.From < 0 || r.From >= len(abstractions) || r.To < 0 || r.To >= len(abstractions) {
			continue
		}
		label := escapeMermaid(truncateUTF8(r.Label, maxEdgeLabelRunes))
		if label == "" {
			fmt.Fprintf(&b, "    %s --> %s\n", nodeID(r.From), nodeID(r.To))
			continue
		}
		fmt.Fprintf(&b, "    %s -- \"%s\" --> %s\n", nodeID(r.From), label, nodeID(r.To))
	}

	return Diagram{
		Title:   "Overview",
		Type:    "flowchart",
		Content: b.String(),
	}
}

func nodeID(i int) string {
	return fmt.Sprintf("A%d", i)
}

// truncateUTF8 truncates s to at most maxRunes Unicode code points,
// avoiding corruption of multi-byte characters.
func truncateUTF8(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes-1]) + "…"
	}
	return s
}

// escapeMermaid replaces characters that would break Mermaid label syntax.
func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
