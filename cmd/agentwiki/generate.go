// cmd/agentwiki/generate.go
package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/config"
	"github.com/julianshen/agentwiki/internal/tui"
	"github.com/julianshen/agentwiki/internal/wiki"
)

type generateFlags struct {
	output          string
	format          string
	language        string
	maxAbstractions int
	noCache         bool
	include         []string
	exclude         []string
	maxFileSizeKB   int
}

func generateCmd() *cobra.Command {
	return newGenerateCmd(&generateFlags{})
}

func newGenerateCmd(f *generateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Generate the tutorial wiki for a directory",
		Long: `Crawl a source directory, let the configured LLM identify its core
abstractions and write one beginner-friendly chapter per abstraction. The
result is written as Markdown (or a Hugo/Docusaurus tree) to the output
directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyGenerateFlags(cmd, f, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(verboseFlag)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runGenerate(cmd.Context(), cfg, dir, cmd.ErrOrStderr(), logger)
		},
	}

	defaults := config.DefaultConfig()
	cmd.Flags().StringVarP(&f.output, "output", "o", defaults.Wiki.OutputDir, "output directory (relative paths resolve against the source directory)")
	cmd.Flags().StringVar(&f.format, "format", defaults.Wiki.Format, "output format: raw-md, hugo, docusaurus")
	cmd.Flags().StringVar(&f.language, "language", defaults.Wiki.Language, "language of the generated tutorial")
	cmd.Flags().IntVar(&f.maxAbstractions, "max-abstractions", defaults.Wiki.MaxAbstractions, "upper bound on identified abstractions (at least 5)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the LLM response cache")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "include glob (repeatable; default: built-in source patterns)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "exclude glob (repeatable; default: built-in patterns)")
	cmd.Flags().IntVar(&f.maxFileSizeKB, "max-file-size", defaults.Crawl.MaxFileSizeKB, "skip files larger than this many KB (0 = no limit)")

	return cmd
}

// applyGenerateFlags copies explicitly set flags over the loaded config.
func applyGenerateFlags(cmd *cobra.Command, f *generateFlags, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Wiki.OutputDir = f.output
	}
	if flags.Changed("format") {
		cfg.Wiki.Format = f.format
	}
	if flags.Changed("language") {
		cfg.Wiki.Language = f.language
	}
	if flags.Changed("max-abstractions") {
		cfg.Wiki.MaxAbstractions = f.maxAbstractions
	}
	if flags.Changed("no-cache") && f.noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("include") {
		cfg.Crawl.Include = f.include
	}
	if flags.Changed("exclude") {
		cfg.Crawl.Exclude = f.exclude
	}
	if flags.Changed("max-file-size") {
		cfg.Crawl.MaxFileSizeKB = f.maxFileSizeKB
	}
}

// resolveOutputDir anchors a relative output directory at the source
// directory.
func resolveOutputDir(sourceDir, outputDir string) string {
	if filepath.IsAbs(outputDir) {
		return outputDir
	}
	return filepath.Join(sourceDir, outputDir)
}

// excludeOutput adds the output directory to the exclude globs when it lies
// inside the source tree, so earlier runs are not fed back to the LLM.
func excludeOutput(exclude []string, sourceDir, outDir string) []string {
	rel, err := filepath.Rel(sourceDir, outDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return exclude
	}
	out := make([]string, 0, len(exclude)+1)
	out = append(out, exclude...)
	return append(out, filepath.ToSlash(rel)+"/**")
}

// runGenerate runs the whole flow and renders the result.
func runGenerate(ctx context.Context, cfg *config.Config, dir string, progressOut io.Writer, logger *zap.Logger) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}

	c, err := openCache(cfg, logger)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	if c != nil {
		defer func() { _ = c.Close() }()
	}

	outDir := resolveOutputDir(absDir, cfg.Wiki.OutputDir)
	gateway := newGateway(cfg, newRegistry(cfg, logger), c, logger)
	progress := tui.NewProgress(progressOut)
	flow := wiki.NewFlow(wiki.Deps{LLM: gateway, Logger: logger, Observer: progress})

	sc := &wiki.SharedContext{
		Dir:                    absDir,
		Language:               cfg.Wiki.Language,
		UseCache:               cfg.Cache.Enabled,
		Provider:               cfg.Provider.Default,
		Model:                  cfg.Provider.Model,
		MaxAbstractions:        cfg.Wiki.MaxAbstractions,
		IncludePatterns:        cfg.Crawl.Include,
		ExcludePatterns:        excludeOutput(cfg.Crawl.Exclude, absDir, outDir),
		MaxFileSizeKB:          cfg.Crawl.MaxFileSizeKB,
		RequireFullCoverage:    cfg.Wiki.RequireFullCoverage,
		PreviousChaptersBudget: cfg.Wiki.PreviousChaptersBudget,
	}
	if err := flow.Run(ctx, sc); err != nil {
		return err
	}

	if err := wiki.Render(sc.Documents, wiki.RendererConfig{
		Format:    cfg.Wiki.Format,
		OutputDir: outDir,
		Title:     sc.ProjectName,
	}); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	progress.Done(outDir, len(sc.Documents))
	return nil
}
