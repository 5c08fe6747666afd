// cmd/agentwiki/open.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/julianshen/agentwiki/internal/config"
	"github.com/julianshen/agentwiki/internal/tui"
)

const defaultOpenWidth = 100

func openCmd() *cobra.Command {
	var page string

	cmd := &cobra.Command{
		Use:   "open [dir]",
		Short: "Read a generated wiki in the terminal",
		Long: `Render the index page (or --page) of the wiki generated for dir with
terminal styling. The output location and format come from the configuration.`,
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
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", dir, err)
			}

			outDir := resolveOutputDir(absDir, cfg.Wiki.OutputDir)
			path := wikiPagePath(cfg.Wiki.Format, outDir, page)
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no wiki page at %s; run `agentwiki generate %s` first", path, dir)
			}

			style, width := "notty", defaultOpenWidth
			if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
				style = "dark"
				if w, _, err := term.GetSize(fd); err == nil && w > 0 {
					width = w
				}
			}
			r, err := tui.NewMarkdownRenderer(style, width)
			if err != nil {
				return err
			}
			out, err := r.RenderFile(path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "chapter file to show instead of the index, e.g. 01_flow.md")

	return cmd
}

// wikiPagePath locates a rendered page for the given output format.
func wikiPagePath(format, outDir, page string) string {
	switch format {
	case config.FormatHugo:
		if page == "" {
			return filepath.Join(outDir, "content", "_index.md")
		}
		return filepath.Join(outDir, "content", page)
	case config.FormatDocusaurus:
		if page == "" {
			page = "index.md"
		}
		return filepath.Join(outDir, "docs", page)
	default:
		if page == "" {
			page = "index.md"
		}
		return filepath.Join(outDir, page)
	}
}
