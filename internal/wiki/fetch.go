package wiki

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/julianshen/agentwiki/internal/crawler"
)

// FetchStage crawls the source directory.
type FetchStage struct{}

type fetchInput struct {
	Dir         string
	ProjectName string
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

type fetchOutput struct {
	ProjectName string
	Files       []FileRecord
}

func (s *FetchStage) Name() string { return "fetch" }

func (s *FetchStage) Prepare(sc *SharedContext) (fetchInput, error) {
	dir, err := filepath.Abs(sc.Dir)
	if err != nil {
		return fetchInput{}, fmt.Errorf("resolving %s: %w", sc.Dir, err)
	}
	project := sc.ProjectName
	if project == "" {
		project = filepath.Base(dir)
	}
	return fetchInput{
		Dir:         dir,
		ProjectName: project,
		Include:     sc.IncludePatterns,
		Exclude:     sc.ExcludePatterns,
		MaxFileSize: int64(sc.MaxFileSizeKB) * 1024,
	}, nil
}

func (s *FetchStage) Execute(ctx context.Context, in fetchInput) (fetchOutput, error) {
	files, err := crawler.Crawl(ctx, in.Dir, crawler.Options{
		Include:     in.Include,
		Exclude:     in.Exclude,
		MaxFileSize: in.MaxFileSize,
		Logger:      loggerFrom(ctx),
	})
	if err != nil {
		return fetchOutput{}, err
	}
	if len(files) == 0 {
		return fetchOutput{}, &NoFilesFoundError{Dir: in.Dir}
	}
	records := make([]FileRecord, len(files))
	for i, f := range files {
		records[i] = FileRecord{Path: f.Path, Content: f.Content}
	}
	return fetchOutput{ProjectName: in.ProjectName, Files: records}, nil
}

func (s *FetchStage) Commit(sc *SharedContext, out fetchOutput) {
	sc.ProjectName = out.ProjectName
	sc.Files = out.Files
}
