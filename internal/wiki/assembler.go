package wiki

import (
	"context"
	"fmt"
	"strings"
)

const (
	indexPath   = "index.md"
	attribution = "Generated by [agentwiki](https://github.com/julianshen/agentwiki)"
)

// CombineStage assembles the tutorial pages. It makes no LLM calls.
type CombineStage struct{}

type combineInput struct {
	Project       string
	Abstractions  []Abstraction
	Relationships RelationshipSet
	Order         []int
	Chapters      []string
}

func (s *CombineStage) Name() string { return "combine" }

func (s *CombineStage) Prepare(sc *SharedContext) (combineInput, error) {
	if len(sc.Chapters) != len(sc.ChapterOrder) {
		return combineInput{}, fmt.Errorf("have %d chapters for %d ordered abstractions", len(sc.Chapters), len(sc.ChapterOrder))
	}
	return combineInput{
		Project:       sc.ProjectName,
		Abstractions:  sc.Abstractions,
		Relationships: sc.Relationships,
		Order:         sc.ChapterOrder,
		Chapters:      sc.Chapters,
	}, nil
}

func (s *CombineStage) Execute(_ context.Context, in combineInput) ([]Document, error) {
	return Assemble(in.Project, in.Abstractions, in.Relationships, in.Order, in.Chapters), nil
}

func (s *CombineStage) Commit(sc *SharedContext, out []Document) {
	sc.Documents = out
}

// Assemble builds index.md followed by one document per chapter, in chapter
// order.
func Assemble(project string, abstractions []Abstraction, rels RelationshipSet, order []int, chapters []string) []Document {
	docs := make([]Document, 0, len(chapters)+1)
	docs = append(docs, buildIndexPage(project, abstractions, rels, order))

	for i, idx := range order {
		if i >= len(chapters) || idx < 0 || idx >= len(abstractions) {
			break
		}
		name := abstractions[idx].Name
		var b strings.Builder
		b.WriteString(strings.TrimRight(chapters[i], "\n"))
		b.WriteString("\n\n---\n\n")
		b.WriteString(attribution)
		b.WriteString("\n")
		docs = append(docs, Document{
			Path:    chapterFilename(i+1, name),
			Title:   name,
			Content: b.String(),
		})
	}
	return docs
}

// buildIndexPage creates index.md with the summary, the relationship diagram
// and the ordered chapter list.
func buildIndexPage(project string, abstractions []Abstraction, rels RelationshipSet, order []int) Document {
	title := "Tutorial: " + project
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if rels.Summary != "" {
		b.WriteString(rels.Summary)
		b.WriteString("\n\n")
	}

	writeMermaidBlock(&b, relationshipDiagram(abstractions, rels.Relationships))

	if len(order) > 0 {
		b.WriteString("## Chapters\n\n")
		for i, idx := range order {
			if idx < 0 || idx >= len(abstractions) {
				continue
			}
			name := abstractions[idx].Name
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, name, chapterFilename(i+1, name))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(attribution)
	b.WriteString("\n")

	return Document{
		Path:    indexPath,
		Title:   title,
		Content: b.String(),
	}
}

// writeMermaidBlock writes a fenced mermaid block to b.
func writeMermaidBlock(b *strings.Builder, d Diagram) {
	b.WriteString("```mermaid\n")
	b.WriteString(d.Content)
	if !strings.HasSuffix(d.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
}
