package wiki

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianshen/agentwiki/internal/llm"
)

// OrderStage asks the LLM for the tutorial order of the abstractions.
type OrderStage struct {
	llm LLM
}

type orderInput struct {
	Project  string
	Language string
	Listing  string
	Context  string
	Count    int
	Opts     llm.Options
}

func (s *OrderStage) Name() string { return "order-chapters" }

func (s *OrderStage) Prepare(sc *SharedContext) (orderInput, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Project Summary:\n%s\n\n", sc.Relationships.Summary)
	b.WriteString("Relationships (Indices refer to abstractions above):\n")
	for _, r := range sc.Relationships.Relationships {
		if r.From < 0 || r.From >= len(sc.Abstractions) || r.To < 0 || r.To >= len(sc.Abstractions) {
			return orderInput{}, fmt.Errorf("relationship %d -> %d references an unknown abstraction", r.From, r.To)
		}
		fmt.Fprintf(&b, "- From %d (%s) to %d (%s): %s\n",
			r.From, sc.Abstractions[r.From].Name, r.To, sc.Abstractions[r.To].Name, r.Label)
	}
	return orderInput{
		Project:  sc.ProjectName,
		Language: sc.Language,
		Listing:  abstractionListing(sc.Abstractions),
		Context:  b.String(),
		Count:    len(sc.Abstractions),
		Opts:     callOptions(sc),
	}, nil
}

func (s *OrderStage) Execute(ctx context.Context, in orderInput) ([]int, error) {
	prompt, err := renderPrompt(orderTmpl, listingPromptData{
		Project: in.Project,
		Listing: in.Listing,
		Context: in.Context,
		Lang:    newLanguageNotes(in.Language),
	})
	if err != nil {
		return nil, err
	}
	response, err := s.llm.Call(ctx, prompt, in.Opts)
	if err != nil {
		return nil, err
	}
	doc, err := decodeFenced(s.Name(), response)
	if err != nil {
		return nil, err
	}
	return validateOrder(doc, in.Count)
}

func (s *OrderStage) Commit(sc *SharedContext, out []int) {
	sc.ChapterOrder = out
}

// validateOrder requires a permutation of 0..count-1.
func validateOrder(doc any, count int) ([]int, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, &ResponseFormatError{Stage: "order-chapters", Reason: fmt.Sprintf("expected a YAML list, got %T", doc)}
	}

	seen := make(map[int]bool, len(items))
	order := make([]int, 0, len(items))
	for pos, raw := range items {
		idx, err := parseIndex(raw)
		if err != nil {
			return nil, &ResponseFormatError{Stage: "order-chapters", Reason: fmt.Sprintf("entry #%d", pos), Err: err}
		}
		if idx < 0 || idx >= count {
			return nil, &IndexOutOfRangeError{Kind: "abstraction", Owner: "chapter order", Index: idx, Limit: count}
		}
		if seen[idx] {
			return nil, &DuplicateOrderEntryError{Index: idx}
		}
		seen[idx] = true
		order = append(order, idx)
	}

	if len(order) != count {
		var missing []int
		for i := 0; i < count; i++ {
			if !seen[i] {
				missing = append(missing, i)
			}
		}
		return nil, &IncompleteOrderError{Got: len(order), Want: count, Missing: missing}
	}
	return order, nil
}
