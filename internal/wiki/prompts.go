package wiki

import (
	"bytes"
	"fmt"
	"text/template"
)

// ---------- prompt templates ----------

var abstractionsTmpl = template.Must(template.New("abstractions").Parse(
	`For the project ` + "`{{.Project}}`" + `:

Codebase Context:
{{.Context}}

{{.Lang.Instruction}}Analyze the codebase context.
Identify the top 5-{{.Max}} core most important abstractions to help those new to the codebase.

For each abstraction, provide:
1. A concise ` + "`name`" + `{{.Lang.Hint}}.
2. A beginner-friendly ` + "`description`" + ` explaining what it is with a simple analogy, in around 100 words{{.Lang.Hint}}.
3. A list of relevant ` + "`file_indices`" + ` (integers) using the format ` + "`idx # path/comment`" + `.

List of file indices and paths present in the context:
{{.Listing}}

Format the output as a YAML list of dictionaries:

` + "```yaml" + `
- name: |
    Query Processing{{.Lang.Hint}}
  description: |
    Explains what the abstraction does.
    It's like a central dispatcher routing requests.{{.Lang.Hint}}
  file_indices:
    - 0 # path/to/file1.go
    - 3 # path/to/related.go
- name: |
    Query Optimization{{.Lang.Hint}}
  description: |
    Another core concept, similar to a blueprint for objects.{{.Lang.Hint}}
  file_indices:
    - 5 # path/to/another.go
# ... up to {{.Max}} abstractions
` + "```"))

var relationshipsTmpl = template.Must(template.New("relationships").Parse(
	`Based on the following abstractions and relevant code snippets from the project ` + "`{{.Project}}`" + `:

List of Abstraction Indices and Names{{.Lang.ListNote}}:
{{.Listing}}

Context (Abstractions, Descriptions, Code):
{{.Context}}

{{.Lang.Instruction}}Please provide:
1. A high-level ` + "`summary`" + ` of the project's main purpose and functionality in a few beginner-friendly sentences{{.Lang.Hint}}. Use markdown formatting with **bold** and *italic* text to highlight important concepts.
2. A list (` + "`relationships`" + `) describing the key interactions between these abstractions. For each relationship, specify:
    - ` + "`from_abstraction`" + `: Index of the source abstraction (e.g., ` + "`0 # AbstractionName1`" + `)
    - ` + "`to_abstraction`" + `: Index of the target abstraction (e.g., ` + "`1 # AbstractionName2`" + `)
    - ` + "`label`" + `: A brief label for the interaction **in just a few words**{{.Lang.Hint}} (e.g., "Manages", "Inherits", "Uses").
    Ideally the relationship should be backed by one abstraction calling or passing parameters to another.
    Simplify the relationship and exclude those non-important ones.

IMPORTANT: Make sure EVERY abstraction is involved in at least ONE relationship (either as source or target). Each abstraction index must appear at least once across all relationships.

Format the output as YAML:

` + "```yaml" + `
summary: |
  A brief, simple explanation of the project{{.Lang.Hint}}.
  Can span multiple lines with **bold** and *italic* for emphasis.
relationships:
  - from_abstraction: 0 # AbstractionName1
    to_abstraction: 1 # AbstractionName2
    label: "Manages"{{.Lang.Hint}}
  - from_abstraction: 2 # AbstractionName3
    to_abstraction: 0 # AbstractionName1
    label: "Provides config"{{.Lang.Hint}}
  # ... other relationships
` + "```" + `

Now, provide the YAML output:`))

var orderTmpl = template.Must(template.New("order").Parse(
	`Given the following project abstractions and their relationships for the project ` + "`{{.Project}}`" + `:

Abstractions (Index # Name){{.Lang.ListNote}}:
{{.Listing}}

Context about relationships and project summary:
{{.Context}}

If you are going to make a tutorial for ` + "`{{.Project}}`" + `, what is the best order to explain these abstractions, from first to last?
Ideally, first explain those that are the most important or foundational, perhaps user-facing concepts or entry points. Then move to more detailed, lower-level implementation details or supporting concepts.

Output the ordered list of abstraction indices, including the name in a comment for clarity. Use the format ` + "`idx # AbstractionName`" + `.

` + "```yaml" + `
- 2 # FoundationalConcept
- 0 # CoreClassA
- 1 # CoreClassB (uses CoreClassA)
- ...
` + "```" + `

Now, provide the YAML output:`))

var chapterTmpl = template.Must(template.New("chapter").Parse(
	`{{.ChapterInstruction}}Write a very beginner-friendly tutorial chapter (in Markdown format) for the project ` + "`{{.Project}}`" + ` about the concept: "{{.Item.Name}}". This is Chapter {{.Item.Number}}.

Concept Details{{.Lang.ConceptDetails}}:
- Name: {{.Item.Name}}
- Description:
{{.Item.Description}}

Complete Tutorial Structure{{.Lang.Structure}}:
{{.Structure}}

Context from previous chapters{{.Lang.PrevSummary}}:
{{.Previous}}

Relevant Code Snippets (Code itself remains unchanged):
{{.Item.Code}}

Instructions for the chapter (Generate content in {{.LangName}} unless specified otherwise):
- Start with a clear heading (e.g., ` + "`# Chapter {{.Item.Number}}: {{.Item.Name}}`" + `). Use the provided concept name.
{{- if .Item.Prev}}
- Begin with a brief transition from the previous chapter{{.Lang.InstructionLang}}, referencing it with a proper Markdown link: [{{.Item.Prev.Name}}]({{.Item.Prev.Filename}}).
{{- end}}
- Begin with a high-level motivation explaining what problem this abstraction solves{{.Lang.InstructionLang}}. Start with a central use case as a concrete example. The whole chapter should guide the reader to understand how to solve this use case. Make it very minimal and friendly to beginners.
- If the abstraction is complex, break it down into key concepts. Explain each concept one-by-one in a very beginner-friendly way{{.Lang.InstructionLang}}.
- Explain how to use this abstraction to solve the use case{{.Lang.InstructionLang}}. Give example inputs and outputs for code snippets (if the output isn't values, describe at a high level what will happen{{.Lang.InstructionLang}}).
- Each code block should be BELOW 10 lines! If longer code blocks are needed, break them down into smaller pieces and walk through them one-by-one. Aggressively simplify the code to make it minimal. Use comments{{.Lang.CodeComment}} to skip non-important implementation details. Each code block should have a beginner friendly explanation right after it{{.Lang.InstructionLang}}.
- Describe the internal implementation to help understand what's under the hood{{.Lang.InstructionLang}}. First provide a non-code or code-light walkthrough on what happens step-by-step when the abstraction is called{{.Lang.InstructionLang}}. It's recommended to use a simple sequenceDiagram with a dummy example, keep it minimal with at most 5 participants to ensure clarity. If participant name has space, use: ` + "`participant QP as Query Processing`" + `.{{.Lang.Mermaid}}
- Then dive deeper into code for the internal implementation with references to files. Provide example code blocks, but make them similarly simple and beginner-friendly. Explain{{.Lang.InstructionLang}}.
- IMPORTANT: When you need to refer to other core abstractions covered in other chapters, ALWAYS use proper Markdown links like this: [Chapter Title](filename.md). Use the Complete Tutorial Structure above to find the correct filename and the chapter title{{.Lang.Link}}. Translate the surrounding text.
- Use mermaid diagrams to illustrate complex concepts (` + "```mermaid```" + ` format).{{.Lang.Mermaid}}
- Heavily use analogies and examples throughout{{.Lang.InstructionLang}} to help beginners understand.
- End the chapter with a brief conclusion that summarizes what was learned{{.Lang.InstructionLang}}
{{- if .Item.Next}} and provides a transition to the next chapter{{.Lang.InstructionLang}}. Use a proper Markdown link: [{{.Item.Next.Name}}]({{.Item.Next.Filename}}){{end}}.
- Ensure the tone is welcoming and easy for a newcomer to understand{{.Lang.Tone}}.
- Output *only* the Markdown content for this chapter.

Now, directly provide a super beginner-friendly Markdown output (DON'T need ` + "```markdown```" + ` tags):`))

type abstractionsPromptData struct {
	Project string
	Context string
	Listing string
	Max     int
	Lang    languageNotes
}

type listingPromptData struct {
	Project string
	Listing string
	Context string
	Lang    languageNotes
}

type chapterPromptData struct {
	Project            string
	Item               ChapterItem
	Structure          string
	Previous           string
	LangName           string
	ChapterInstruction string
	Lang               languageNotes
}

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
