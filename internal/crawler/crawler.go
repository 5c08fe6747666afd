// Package crawler collects the text files of a source tree that a wiki run
// should read.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// File is one crawled file. Path is relative to the crawl root and always
// uses forward slashes.
type File struct {
	Path    string
	Content string
}

// Options controls which files are collected.
type Options struct {
	// Include globs; empty or containing "*" means every file.
	Include []string
	// Exclude globs, checked after the root .gitignore.
	Exclude []string
	// MaxFileSize in bytes; files larger than this are skipped. Zero
	// disables the limit.
	MaxFileSize int64
	Logger      *zap.Logger
}

// DirectoryNotFoundError is returned when the crawl root does not exist or
// is not a directory.
type DirectoryNotFoundError struct {
	Path string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("directory not found: %s", e.Path)
}

// Crawl walks root in lexical order and returns the files that pass the
// ignore, include and size filters. An empty result is not an error.
func Crawl(ctx context.Context, root string, opts Options) ([]File, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, &DirectoryNotFoundError{Path: root}
	}

	m := newMatcher(root, opts, logger)

	var files []File
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return walkErr
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			logger.Warn("skipping unreadable path", zap.String("path", rel), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		isDir := d.IsDir()
		if m.excluded(rel, isDir) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}

		fi, err := os.Stat(p)
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
			return nil
		}
		if !fi.Mode().IsRegular() {
			return nil
		}
		if !m.included(rel) {
			return nil
		}
		if opts.MaxFileSize > 0 && fi.Size() > opts.MaxFileSize {
			logger.Debug("skipping large file", zap.String("path", rel), zap.Int64("size", fi.Size()))
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
			return nil
		}
		if !utf8.Valid(data) {
			logger.Warn("file is not valid UTF-8, replacing invalid bytes", zap.String("path", rel))
			data = []byte(strings.ToValidUTF8(string(data), "�"))
		}
		files = append(files, File{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	logger.Info("crawl finished", zap.String("root", root), zap.Int("files", len(files)))
	return files, nil
}

type matcher struct {
	gitignore  *ignore.GitIgnore
	include    []string
	exclude    []string
	includeAll bool
}

func newMatcher(root string, opts Options, logger *zap.Logger) *matcher {
	m := &matcher{
		include: opts.Include,
		exclude: opts.Exclude,
	}

	m.includeAll = len(opts.Include) == 0
	for _, p := range opts.Include {
		if p == "*" {
			m.includeAll = true
		}
	}

	gi := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gi); err == nil {
		compiled, err := ignore.CompileIgnoreFile(gi)
		if err != nil {
			logger.Warn("cannot parse .gitignore, ignoring it", zap.String("path", gi), zap.Error(err))
		} else {
			m.gitignore = compiled
			logger.Debug("loaded .gitignore", zap.String("path", gi))
		}
	}
	return m
}

// excluded applies the root .gitignore first and the exclude globs second.
func (m *matcher) excluded(rel string, isDir bool) bool {
	if m.gitignore != nil {
		if m.gitignore.MatchesPath(rel) || (isDir && m.gitignore.MatchesPath(rel+"/")) {
			return true
		}
	}
	for _, pattern := range m.exclude {
		if matchGlob(pattern, rel) {
			return true
		}
		// "dir/*" and "dir/**" prune the directory itself.
		if isDir {
			for _, suffix := range []string{"/**", "/*"} {
				if prefix, ok := strings.CutSuffix(pattern, suffix); ok && matchGlob(prefix, rel) {
					return true
				}
			}
		}
	}
	return false
}

func (m *matcher) included(rel string) bool {
	if m.includeAll {
		return true
	}
	for _, pattern := range m.include {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

// matchGlob matches a doublestar pattern against a relative path. Patterns
// without a slash also match against the base name, so "*.go" selects Go
// files at any depth.
func matchGlob(pattern, rel string) bool {
	if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, err := doublestar.Match(pattern, path.Base(rel))
		return err == nil && ok
	}
	return false
}
