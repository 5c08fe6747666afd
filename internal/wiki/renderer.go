package wiki

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/julianshen/agentwiki/internal/config"
	"github.com/julianshen/agentwiki/internal/fileutil"
)

// RendererConfig controls how the site renderer writes output files.
type RendererConfig struct {
	Format    string // "raw-md", "hugo", or "docusaurus"
	OutputDir string // root output directory
	Title     string // site title for hugo/docusaurus configs
}

// DefaultRendererConfig returns a RendererConfig with sensible defaults.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Format:    config.FormatRawMarkdown,
		OutputDir: "docs/agentwiki",
		Title:     "Project Wiki",
	}
}

// Render writes the given documents to disk in the configured format.
func Render(documents []Document, cfg RendererConfig) error {
	if cfg.Title == "" {
		cfg.Title = "Project Wiki"
	}
	switch cfg.Format {
	case config.FormatRawMarkdown:
		return renderRawMarkdown(documents, cfg)
	case config.FormatHugo:
		return renderHugo(documents, cfg)
	case config.FormatDocusaurus:
		return renderDocusaurus(documents, cfg)
	default:
		return fmt.Errorf("unsupported render format: %s", cfg.Format)
	}
}

// renderRawMarkdown writes each document as-is under OutputDir.
func renderRawMarkdown(documents []Document, cfg RendererConfig) error {
	for _, doc := range documents {
		if err := writeDoc(filepath.Join(cfg.OutputDir, doc.Path), doc.Content); err != nil {
			return err
		}
	}
	return nil
}

// renderHugo writes documents with YAML front matter under OutputDir/content/
// and generates a config.toml at OutputDir/config.toml. index.md becomes the
// section's _index.md.
func renderHugo(documents []Document, cfg RendererConfig) error {
	for i, doc := range documents {
		frontMatter := fmt.Sprintf("---\ntitle: %q\nweight: %d\n---\n\n", doc.Title, i+1)
		name := doc.Path
		if name == indexPath {
			name = "_index.md"
		}
		if err := writeDoc(filepath.Join(cfg.OutputDir, "content", name), frontMatter+doc.Content); err != nil {
			return err
		}
	}

	configContent := fmt.Sprintf(`baseURL = "/"
languageCode = "en-us"
title = %s
theme = "hugo-book"

[markup.goldmark.renderer]
unsafe = true
`, strconv.Quote(cfg.Title))
	return writeDoc(filepath.Join(cfg.OutputDir, "config.toml"), configContent)
}

// renderDocusaurus writes documents with YAML front matter under OutputDir/docs/
// and generates a docusaurus.config.js at OutputDir/docusaurus.config.js.
func renderDocusaurus(documents []Document, cfg RendererConfig) error {
	for i, doc := range documents {
		frontMatter := fmt.Sprintf("---\nsidebar_position: %d\nsidebar_label: %q\n---\n\n", i+1, doc.Title)
		if doc.Path == indexPath {
			frontMatter = fmt.Sprintf("---\nslug: /\nsidebar_position: %d\nsidebar_label: %q\n---\n\n", i+1, doc.Title)
		}
		if err := writeDoc(filepath.Join(cfg.OutputDir, "docs", doc.Path), frontMatter+doc.Content); err != nil {
			return err
		}
	}

	configContent := fmt.Sprintf(`// @ts-check

/** @type {import('@docusaurus/types').Config} */
const config = {
  title: %s,
  url: 'https://your-project-url.example.com',
  baseUrl: '/',
  themes: ['@docusaurus/theme-mermaid'],
  markdown: {
    mermaid: true,
  },
  presets: [
    [
      'classic',
      /** @type {import('@docusaurus/preset-classic').Options} */
      ({
        docs: {
          routeBasePath: '/',
        },
      }),
    ],
  ],
};

module.exports = config;
`, strconv.Quote(cfg.Title))
	return writeDoc(filepath.Join(cfg.OutputDir, "docusaurus.config.js"), configContent)
}

func writeDoc(path, content string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
