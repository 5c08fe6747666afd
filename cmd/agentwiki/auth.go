// cmd/agentwiki/auth.go
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/julianshen/agentwiki/internal/config"
	"github.com/julianshen/agentwiki/internal/provider/anthropic"
	"github.com/julianshen/agentwiki/internal/provider/gemini"
	"github.com/julianshen/agentwiki/internal/provider/ollama"
	"github.com/julianshen/agentwiki/internal/provider/openrouter"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys in the OS keyring",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the API key for the selected provider",
		Long: `Read an API key (hidden when typed at a terminal, otherwise one line from
stdin) and store it in the OS keyring for the provider chosen with --provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := authProvider()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "API key for %s: ", name)
			key, err := readSecret(cmd.InOrStdin())
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := config.StoreAPIKey(name, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s.\n", name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API key for the selected provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := authProvider()
			if err != nil {
				return err
			}
			if err := config.DeleteAPIKey(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed API key for %s.\n", name)
			return nil
		},
	})

	return cmd
}

// authProvider resolves the provider the key belongs to: --provider, else
// the configured default.
func authProvider() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	name := cfg.Provider.Default
	switch name {
	case openrouter.Name, anthropic.Name, gemini.Name:
		return name, nil
	case ollama.Name:
		return "", fmt.Errorf("provider %q runs locally and needs no API key", name)
	default:
		return "", fmt.Errorf("unknown provider %q", name)
	}
}

// readSecret reads without echo from a terminal, or a single line otherwise.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("no API key given")
	}
	return key, nil
}
