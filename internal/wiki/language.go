package wiki

import (
	"fmt"
	"strings"
)

// languageNotes carries the per-prompt fragments that ask the model to
// answer in a language other than English. Every field is empty for English.
type languageNotes struct {
	Instruction     string
	Hint            string
	ListNote        string
	ConceptDetails  string
	Structure       string
	PrevSummary     string
	InstructionLang string
	Mermaid         string
	CodeComment     string
	Link            string
	Tone            string
}

func isEnglish(lang string) bool {
	l := strings.ToLower(strings.TrimSpace(lang))
	return l == "" || l == "english"
}

func capitalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return lang
	}
	return strings.ToUpper(lang[:1]) + lang[1:]
}

// fieldInstruction asks for the named fields to be written in lang.
func fieldInstruction(lang string, fields ...string) string {
	if isEnglish(lang) {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = "`" + f + "`"
	}
	return fmt.Sprintf("IMPORTANT: Generate the %s for each abstraction in **%s** language. Do NOT use English for these fields.\n\n",
		strings.Join(quoted, " and "), capitalize(lang))
}

func newLanguageNotes(lang string, fields ...string) languageNotes {
	if isEnglish(lang) {
		return languageNotes{}
	}
	c := capitalize(lang)
	return languageNotes{
		Instruction:     fieldInstruction(lang, fields...),
		Hint:            fmt.Sprintf(" (in %s)", c),
		ListNote:        fmt.Sprintf(" (Names might be in %s)", c),
		ConceptDetails:  fmt.Sprintf(" (Note: %s version provided)", c),
		Structure:       fmt.Sprintf(" (Note: chapter names may be in %s)", c),
		PrevSummary:     fmt.Sprintf(" (Note: this summary may be in %s)", c),
		InstructionLang: fmt.Sprintf(" (in %s)", c),
		Mermaid:         fmt.Sprintf(" (if appropriate, use %s for labels/text)", c),
		CodeComment:     fmt.Sprintf(" (translate to %s if possible, otherwise keep minimal English for clarity)", c),
		Link:            fmt.Sprintf(" (use %s chapter titles from the structure above)", c),
		Tone:            fmt.Sprintf(" (suitable for %s readers)", c),
	}
}

// chapterInstruction is the whole-chapter language directive of the chapter
// prompt.
func chapterInstruction(lang string) string {
	if isEnglish(lang) {
		return ""
	}
	c := capitalize(lang)
	return fmt.Sprintf("IMPORTANT: Write this ENTIRE tutorial chapter in **%s**. Some input context (like concept name, description, chapter list, previous summary) might already be in %s, but you MUST translate ALL other generated content including explanations, examples, technical terms, and potentially code comments into %s. DO NOT use English anywhere except in code syntax, required proper nouns, or when specified. The entire output MUST be in %s.\n\n",
		c, c, c, c)
}
