package wiki

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/llm"
)

const minAbstractions = 5

// AbstractionsStage asks the LLM for the core abstractions of the codebase.
type AbstractionsStage struct {
	llm LLM
}

type abstractionsInput struct {
	Project   string
	Language  string
	Context   string
	Listing   string
	FileCount int
	Max       int
	Opts      llm.Options
}

func (s *AbstractionsStage) Name() string { return "identify-abstractions" }

func (s *AbstractionsStage) Prepare(sc *SharedContext) (abstractionsInput, error) {
	var ctxBuf, listing strings.Builder
	for i, f := range sc.Files {
		fmt.Fprintf(&ctxBuf, "--- File Index %d: %s ---\n%s\n\n", i, f.Path, f.Content)
		if i > 0 {
			listing.WriteByte('\n')
		}
		fmt.Fprintf(&listing, "- %d # %s", i, f.Path)
	}
	maxN := sc.MaxAbstractions
	if maxN < minAbstractions {
		maxN = minAbstractions
	}
	return abstractionsInput{
		Project:   sc.ProjectName,
		Language:  sc.Language,
		Context:   ctxBuf.String(),
		Listing:   listing.String(),
		FileCount: len(sc.Files),
		Max:       maxN,
		Opts:      callOptions(sc),
	}, nil
}

func (s *AbstractionsStage) Execute(ctx context.Context, in abstractionsInput) ([]Abstraction, error) {
	prompt, err := renderPrompt(abstractionsTmpl, abstractionsPromptData{
		Project: in.Project,
		Context: in.Context,
		Listing: in.Listing,
		Max:     in.Max,
		Lang:    newLanguageNotes(in.Language, "name", "description"),
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
	return validateAbstractions(loggerFrom(ctx), doc, in.FileCount)
}

func (s *AbstractionsStage) Commit(sc *SharedContext, out []Abstraction) {
	sc.Abstractions = out
}

func validateAbstractions(log *zap.Logger, doc any, fileCount int) ([]Abstraction, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, &ResponseFormatError{Stage: "identify-abstractions", Reason: fmt.Sprintf("expected a YAML list, got %T", doc)}
	}

	var result []Abstraction
	skipped := 0
	for pos, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			log.Warn("skipping abstraction entry that is not a mapping", zap.Int("position", pos))
			skipped++
			continue
		}
		name, ok := m["name"].(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, &InvalidAbstractionError{Position: pos, Reason: "missing string field \"name\""}
		}
		name = strings.Join(strings.Fields(name), " ")
		desc, ok := m["description"].(string)
		if !ok || strings.TrimSpace(desc) == "" {
			return nil, &InvalidAbstractionError{Position: pos, Reason: "missing string field \"description\""}
		}
		rawIdx, ok := m["file_indices"].([]any)
		if !ok {
			return nil, &InvalidAbstractionError{Position: pos, Reason: "missing list field \"file_indices\""}
		}

		seen := make(map[int]bool, len(rawIdx))
		files := make([]int, 0, len(rawIdx))
		for _, v := range rawIdx {
			idx, err := parseIndex(v)
			if err != nil {
				return nil, &InvalidAbstractionError{Position: pos, Reason: err.Error()}
			}
			if idx < 0 || idx >= fileCount {
				return nil, &IndexOutOfRangeError{Kind: "file", Owner: fmt.Sprintf("abstraction %q", name), Index: idx, Limit: fileCount}
			}
			if !seen[idx] {
				seen[idx] = true
				files = append(files, idx)
			}
		}
		sort.Ints(files)

		result = append(result, Abstraction{
			Name:        name,
			Description: strings.TrimSpace(desc),
			Files:       files,
		})
	}

	if len(result) == 0 {
		return nil, &AllAbstractionsInvalidError{Skipped: skipped}
	}
	return result, nil
}
