package wiki

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/llm"
)

const firstChapterContext = "This is the first chapter."


// ChapterLink is a reference to a neighbouring chapter.
type ChapterLink struct {
	Name     string
	Filename string
}

// ChapterItem is everything needed to write one chapter.
type ChapterItem struct {
	Number      int
	Abstraction int
	Name        string
	Description string
	Filename    string
	Code        string
	Prev        *ChapterLink
	Next        *ChapterLink
}

// ChaptersStage writes one chapter per abstraction, in chapter order.
type ChaptersStage struct {
	llm LLM
}

type chaptersInput struct {
	Project   string
	Language  string
	Items     []ChapterItem
	Structure string
	Budget    int
	Opts      llm.Options
}

func (s *ChaptersStage) Name() string { return "write-chapters" }

// chapterFilename returns "NN_safe_name.md". Letters of any script and
// digits are kept; every other rune becomes '_'.
func chapterFilename(number int, name string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, strings.ToLower(name))
	return fmt.Sprintf("%02d_%s.md", number, safe)
}

func (s *ChaptersStage) Prepare(sc *SharedContext) (chaptersInput, error) {
	items := make([]ChapterItem, len(sc.ChapterOrder))
	structure := make([]string, len(sc.ChapterOrder))
	for i, idx := range sc.ChapterOrder {
		if idx < 0 || idx >= len(sc.Abstractions) {
			return chaptersInput{}, &IndexOutOfRangeError{Kind: "abstraction", Owner: "chapter order", Index: idx, Limit: len(sc.Abstractions)}
		}
		a := sc.Abstractions[idx]
		items[i] = ChapterItem{
			Number:      i + 1,
			Abstraction: idx,
			Name:        a.Name,
			Description: a.Description,
			Filename:    chapterFilename(i+1, a.Name),
			Code:        relatedCode(sc.Files, a.Files),
		}
		structure[i] = fmt.Sprintf("%d. [%s](%s)", i+1, a.Name, items[i].Filename)
	}
	for i := range items {
		if i > 0 {
			items[i].Prev = &ChapterLink{Name: items[i-1].Name, Filename: items[i-1].Filename}
		}
		if i < len(items)-1 {
			items[i].Next = &ChapterLink{Name: items[i+1].Name, Filename: items[i+1].Filename}
		}
	}
	return chaptersInput{
		Project:   sc.ProjectName,
		Language:  sc.Language,
		Items:     items,
		Structure: strings.Join(structure, "\n"),
		Budget:    sc.PreviousChaptersBudget,
		Opts:      callOptions(sc),
	}, nil
}

// Execute folds over the chapters: each one sees the text of the chapters
// written before it.
func (s *ChaptersStage) Execute(ctx context.Context, in chaptersInput) ([]string, error) {
	written := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := s.writeChapter(ctx, in, item, written)
		if err != nil {
			return nil, fmt.Errorf("chapter %d (%s): %w", item.Number, item.Name, err)
		}
		written = append(written, text)
	}
	return written, nil
}

func (s *ChaptersStage) Commit(sc *SharedContext, out []string) {
	sc.Chapters = out
}

func (s *ChaptersStage) writeChapter(ctx context.Context, in chaptersInput, item ChapterItem, written []string) (string, error) {
	loggerFrom(ctx).Info("writing chapter", zap.Int("chapter", item.Number), zap.String("name", item.Name))
	prompt, err := renderPrompt(chapterTmpl, chapterPromptData{
		Project:            in.Project,
		Item:               item,
		Structure:          in.Structure,
		Previous:           previousChapters(written, in.Budget),
		LangName:           langName(in.Language),
		ChapterInstruction: chapterInstruction(in.Language),
		Lang:               newLanguageNotes(in.Language),
	})
	if err != nil {
		return "", err
	}
	response, err := s.llm.Call(ctx, prompt, in.Opts)
	if err != nil {
		return "", err
	}
	return normalizeHeading(response, item.Number, item.Name), nil
}

func langName(lang string) string {
	if isEnglish(lang) {
		return "English"
	}
	return capitalize(lang)
}

// relatedCode renders the files referenced by an abstraction.
func relatedCode(files []FileRecord, indices []int) string {
	var parts []string
	for _, idx := range indices {
		if idx < 0 || idx >= len(files) {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- File: %s ---\n%s", files[idx].Path, files[idx].Content))
	}
	if len(parts) == 0 {
		return "No specific code snippets provided for this abstraction."
	}
	return strings.Join(parts, "\n\n")
}

// previousChapters joins earlier chapters with "\n---\n". With a positive
// budget the oldest chapters are dropped until the text fits; the most
// recent chapter is always kept.
func previousChapters(written []string, budget int) string {
	if len(written) == 0 {
		return firstChapterContext
	}
	keep := written
	if budget > 0 {
		size := len(strings.Join(keep, "\n---\n"))
		for len(keep) > 1 && size > budget {
			size -= len(keep[0]) + len("\n---\n")
			keep = keep[1:]
		}
	}
	return strings.Join(keep, "\n---\n")
}

// normalizeHeading makes sure the chapter starts with "# Chapter n: name".
func normalizeHeading(text string, number int, name string) string {
	heading := fmt.Sprintf("# Chapter %d: %s", number, name)
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, fmt.Sprintf("# Chapter %d:", number)) {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "#") {
		lines[0] = heading
		return strings.Join(lines, "\n")
	}
	return heading + "\n\n" + trimmed
}
