package wiki

// FileRecord is a crawled source file. Stages refer to files by their index
// in SharedContext.Files.
type FileRecord struct {
	Path    string
	Content string
}

// Abstraction is a core concept of the analysed codebase. Files holds
// ascending, unique indices into SharedContext.Files.
type Abstraction struct {
	Name        string
	Description string
	Files       []int
}

// Relationship is a directed, labelled edge between two abstractions.
type Relationship struct {
	From  int
	To    int
	Label string
}

// RelationshipSet is the output of the relationship analysis stage.
type RelationshipSet struct {
	Summary       string
	Relationships []Relationship
}

// Diagram holds a generated Mermaid diagram.
type Diagram struct {
	Title   string
	Type    string // "flowchart"
	Content string // Mermaid source
}

// Document represents a single output page in the wiki.
type Document struct {
	Path    string
	Title   string
	Content string
}

// SharedContext is the state threaded through one generation run. The
// configuration fields are set by the caller; each stage writes only its
// own result field.
type SharedContext struct {
	Dir                    string
	ProjectName            string
	Language               string
	UseCache               bool
	Provider               string
	Model                  string
	Credential             string
	MaxAbstractions        int
	IncludePatterns        []string
	ExcludePatterns        []string
	MaxFileSizeKB          int
	RequireFullCoverage    bool
	PreviousChaptersBudget int

	Files         []FileRecord
	Abstractions  []Abstraction
	Relationships RelationshipSet
	ChapterOrder  []int
	Chapters      []string
	Documents     []Document
}
