package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/julianshen/agentwiki/internal/config"
)

func TestGenerateCmdFlags(t *testing.T) {
	cmd := generateCmd()
	for _, name := range []string{"output", "format", "language", "max-abstractions", "no-cache", "include", "exclude", "max-file-size"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "o", cmd.Flags().Lookup("output").Shorthand)
	assert.Equal(t, "raw-md", cmd.Flags().Lookup("format").DefValue)
}

func TestApplyGenerateFlagsOnlyChanged(t *testing.T) {
	f := &generateFlags{}
	cmd := newGenerateCmd(f)
	require.NoError(t, cmd.ParseFlags([]string{"--format", "hugo", "--no-cache", "--exclude", "gen/*", "--max-abstractions", "7"}))

	cfg := config.DefaultConfig()
	cfg.Wiki.Language = "french"
	applyGenerateFlags(cmd, f, cfg)

	assert.Equal(t, "hugo", cfg.Wiki.Format)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"gen/*"}, cfg.Crawl.Exclude)
	assert.Equal(t, 7, cfg.Wiki.MaxAbstractions)
	assert.Equal(t, "french", cfg.Wiki.Language, "unset flags keep the config value")
	assert.Equal(t, config.DefaultIncludePatterns(), cfg.Crawl.Include)
}

func TestResolveOutputDir(t *testing.T) {
	src := filepath.Join(string(filepath.Separator), "src", "proj")
	assert.Equal(t, filepath.Join(src, "docs", "agentwiki"), resolveOutputDir(src, filepath.Join("docs", "agentwiki")))

	abs := filepath.Join(string(filepath.Separator), "tmp", "out")
	assert.Equal(t, abs, resolveOutputDir(src, abs))
}

func TestExcludeOutput(t *testing.T) {
	src := filepath.Join(string(filepath.Separator), "src", "proj")

	got := excludeOutput([]string{"vendor/*"}, src, filepath.Join(src, "docs", "agentwiki"))
	assert.Equal(t, []string{"vendor/*", "docs/agentwiki/**"}, got)

	outside := filepath.Join(string(filepath.Separator), "tmp", "out")
	assert.Equal(t, []string{"vendor/*"}, excludeOutput([]string{"vendor/*"}, src, outside))
	assert.Equal(t, []string{"vendor/*"}, excludeOutput([]string{"vendor/*"}, src, src))
}

// fakeOllama answers /api/tags and /api/chat, picking the chat reply by
// the first key contained in the prompt.
func fakeOllama(t *testing.T, replies [][2]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"tiny"}]}`))
		case "/api/chat":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			reply := "default response"
			for _, kv := range replies {
				if strings.Contains(req.Messages[0].Content, kv[0]) {
					reply = kv[1]
					break
				}
			}
			chunk, _ := json.Marshal(map[string]any{"message": map[string]string{"content": reply}, "done": true})
			_, _ = w.Write(append(chunk, '\n'))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunGenerateWritesWiki(t *testing.T) {
	fence := func(body string) string { return "```yaml\n" + body + "\n```" }
	srv := fakeOllama(t, [][2]string{
		{"Identify the top", fence("- name: Server\n  description: Accepts requests.\n  file_indices: [0]\n- name: Store\n  description: Keeps data.\n  file_indices: [\"1 # store.go\"]")},
		{"List of Abstraction Indices and Names", fence("summary: A tiny service.\nrelationships:\n  - from_abstraction: 0 # Server\n    to_abstraction: 1 # Store\n    label: Saves to")},
		{"what is the best order", fence("- 0 # Server\n- 1 # Store")},
		{`about the concept: "Server"`, "# Chapter 1: Server\nThe server."},
		{`about the concept: "Store"`, "The store."},
	})

	src := filepath.Join(t.TempDir(), "svc")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "server.go"), []byte("package svc\n\nfunc Serve() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "store.go"), []byte("package svc\n\nfunc Save() {}\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Provider.Default = "ollama"
	cfg.Provider.Ollama.BaseURL = srv.URL
	cfg.Cache.Enabled = false
	cfg.Wiki.OutputDir = "wiki"

	var progress bytes.Buffer
	require.NoError(t, runGenerate(context.Background(), cfg, src, &progress, zaptest.NewLogger(t)))

	outDir := filepath.Join(src, "wiki")
	index, err := os.ReadFile(filepath.Join(outDir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "# Tutorial: svc")
	assert.Contains(t, string(index), "A tiny service.")
	assert.Contains(t, string(index), "01_server.md")

	chapter, err := os.ReadFile(filepath.Join(outDir, "02_store.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(chapter), "# Chapter 2: Store"))

	assert.Contains(t, progress.String(), "[6/6]")
	assert.Contains(t, progress.String(), "wrote 3 pages to "+outDir)
}

func TestRunGenerateEmptyDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.Default = "ollama"
	cfg.Cache.Enabled = false

	err := runGenerate(context.Background(), cfg, t.TempDir(), &bytes.Buffer{}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "fetch")
}
