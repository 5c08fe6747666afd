// cmd/agentwiki/ollama.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/agentwiki/internal/provider/ollama"
)

// ollamaCmd groups helpers for the local Ollama provider.
func ollamaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ollama",
		Short: "Inspect the local Ollama server",
		Long:  "Check whether Ollama is reachable and which models it can serve for wiki generation.",
	}
	cmd.PersistentFlags().String("base-url", "", "Ollama API base URL (default: provider.ollama.base_url from the config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List locally available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := ollamaClient(cmd)
			if err != nil {
				return err
			}
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			return writeOllamaModels(cmd.OutOrStdout(), models)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Check if Ollama is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, baseURL, err := ollamaClient(cmd)
			if err != nil {
				return err
			}
			version, err := client.Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Ollama is not running at %s\n", baseURL)
				return fmt.Errorf("ollama not reachable: %w", err)
			}
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Status:\trunning\n")
			fmt.Fprintf(w, "URL:\t%s\n", baseURL)
			fmt.Fprintf(w, "Version:\t%s\n", version)
			fmt.Fprintf(w, "Models:\t%d\n", len(models))
			return w.Flush()
		},
	})

	return cmd
}

// ollamaClient prefers --base-url over the configured server address.
func ollamaClient(cmd *cobra.Command) (*ollama.Client, string, error) {
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, "", err
		}
		baseURL = cfg.Provider.Ollama.BaseURL
	}
	if baseURL == "" {
		baseURL = ollama.DefaultBaseURL
	}
	return ollama.NewClient(baseURL), baseURL, nil
}

func writeOllamaModels(out io.Writer, models []ollama.ModelInfo) error {
	if len(models) == 0 {
		_, err := fmt.Fprintln(out, "No models available. Pull one with `ollama pull <model>`.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, formatBytes(m.Size), m.ModifiedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

// formatBytes renders a size with a binary unit, e.g. "4.0 GB".
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMG"[exp])
}
