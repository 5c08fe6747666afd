package wiki

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/llm"
)

// RelationshipsStage asks the LLM for a project summary and the
// interactions between abstractions.
type RelationshipsStage struct {
	llm LLM
}

type relationshipsInput struct {
	Project         string
	Language        string
	Listing         string
	Context         string
	Count           int
	RequireCoverage bool
	Opts            llm.Options
}

func (s *RelationshipsStage) Name() string { return "analyze-relationships" }

func (s *RelationshipsStage) Prepare(sc *SharedContext) (relationshipsInput, error) {
	var ctxBuf strings.Builder
	ctxBuf.WriteString("Identified Abstractions:\n")
	referenced := make(map[int]bool)
	for i, a := range sc.Abstractions {
		fmt.Fprintf(&ctxBuf, "- Index %d: %s (Relevant file indices: %s)\n  Description: %s\n",
			i, a.Name, joinInts(a.Files), a.Description)
		for _, f := range a.Files {
			referenced[f] = true
		}
	}

	indices := make([]int, 0, len(referenced))
	for idx := range referenced {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	ctxBuf.WriteString("\nRelevant File Snippets (Referenced by Index and Path):\n")
	snippets := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(sc.Files) {
			return relationshipsInput{}, &IndexOutOfRangeError{Kind: "file", Index: idx, Limit: len(sc.Files)}
		}
		f := sc.Files[idx]
		snippets = append(snippets, fmt.Sprintf("--- File: %s ---\n%s", f.Path, f.Content))
	}
	ctxBuf.WriteString(strings.Join(snippets, "\n\n"))

	return relationshipsInput{
		Project:         sc.ProjectName,
		Language:        sc.Language,
		Listing:         abstractionListing(sc.Abstractions),
		Context:         ctxBuf.String(),
		Count:           len(sc.Abstractions),
		RequireCoverage: sc.RequireFullCoverage,
		Opts:            callOptions(sc),
	}, nil
}

func (s *RelationshipsStage) Execute(ctx context.Context, in relationshipsInput) (RelationshipSet, error) {
	prompt, err := renderPrompt(relationshipsTmpl, listingPromptData{
		Project: in.Project,
		Listing: in.Listing,
		Context: in.Context,
		Lang:    newLanguageNotes(in.Language, "summary", "label"),
	})
	if err != nil {
		return RelationshipSet{}, err
	}
	response, err := s.llm.Call(ctx, prompt, in.Opts)
	if err != nil {
		return RelationshipSet{}, err
	}
	doc, err := decodeFenced(s.Name(), response)
	if err != nil {
		return RelationshipSet{}, err
	}
	set, err := validateRelationships(doc, in.Count)
	if err != nil {
		return RelationshipSet{}, err
	}

	if missing := uncovered(set.Relationships, in.Count); len(missing) > 0 {
		if in.RequireCoverage && in.Count >= 2 {
			return RelationshipSet{}, &UncoveredAbstractionError{Missing: missing}
		}
		loggerFrom(ctx).Warn("some abstractions take part in no relationship",
			zap.Ints("abstractions", missing))
	}
	return set, nil
}

func (s *RelationshipsStage) Commit(sc *SharedContext, out RelationshipSet) {
	sc.Relationships = out
}

// abstractionListing renders "- {i} # {name}" lines.
func abstractionListing(abstractions []Abstraction) string {
	lines := make([]string, len(abstractions))
	for i, a := range abstractions {
		lines[i] = fmt.Sprintf("- %d # %s", i, a.Name)
	}
	return strings.Join(lines, "\n")
}

func validateRelationships(doc any, count int) (RelationshipSet, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return RelationshipSet{}, &MalformedRelationshipsError{Reason: fmt.Sprintf("expected a mapping, got %T", doc)}
	}
	summary, ok := m["summary"].(string)
	if !ok {
		return RelationshipSet{}, &MalformedRelationshipsError{Reason: "missing string field \"summary\""}
	}
	items, ok := m["relationships"].([]any)
	if !ok {
		return RelationshipSet{}, &MalformedRelationshipsError{Reason: "missing list field \"relationships\""}
	}

	rels := make([]Relationship, 0, len(items))
	for pos, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			return RelationshipSet{}, &MalformedRelationshipsError{Reason: fmt.Sprintf("relationship #%d is not a mapping", pos)}
		}
		label, ok := item["label"].(string)
		if !ok {
			return RelationshipSet{}, &MalformedRelationshipsError{Reason: fmt.Sprintf("relationship #%d: missing string field \"label\"", pos)}
		}
		from, err := relationshipEnd(item, "from_abstraction", pos, count)
		if err != nil {
			return RelationshipSet{}, err
		}
		to, err := relationshipEnd(item, "to_abstraction", pos, count)
		if err != nil {
			return RelationshipSet{}, err
		}
		rels = append(rels, Relationship{From: from, To: to, Label: strings.TrimSpace(label)})
	}

	return RelationshipSet{Summary: strings.TrimSpace(summary), Relationships: rels}, nil
}

func relationshipEnd(item map[string]any, key string, pos, count int) (int, error) {
	raw, ok := item[key]
	if !ok {
		return 0, &MalformedRelationshipsError{Reason: fmt.Sprintf("relationship #%d: missing field %q", pos, key)}
	}
	idx, err := parseIndex(raw)
	if err != nil {
		return 0, &MalformedRelationshipsError{Reason: fmt.Sprintf("relationship #%d: %s: %v", pos, key, err)}
	}
	if idx < 0 || idx >= count {
		return 0, &IndexOutOfRangeError{Kind: "abstraction", Owner: fmt.Sprintf("relationship #%d", pos), Index: idx, Limit: count}
	}
	return idx, nil
}

// uncovered returns, in ascending order, the abstractions that appear in no
// relationship.
func uncovered(rels []Relationship, count int) []int {
	covered := make([]bool, count)
	for _, r := range rels {
		covered[r.From] = true
		covered[r.To] = true
	}
	var missing []int
	for i, ok := range covered {
		if !ok {
			missing = append(missing, i)
		}
	}
	return missing
}
