// cmd/agentwiki/models.go
package main

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/config"
	"github.com/julianshen/agentwiki/internal/llm"
	"github.com/julianshen/agentwiki/internal/provider"
	"github.com/julianshen/agentwiki/internal/tui"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models each provider offers",
		Long: `Query every provider concurrently and print its models. OpenRouter models
are sorted by price, free ones first. Use --provider to list a single provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(verboseFlag)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			reg := newRegistry(cfg, logger)
			providers := reg.All()
			if providerFlag != "" {
				p, ok := reg.Lookup(providerFlag)
				if !ok {
					return &llm.UnknownProviderError{Name: providerFlag, Known: reg.Names()}
				}
				providers = []provider.Provider{p}
			}

			results := listAllModels(cmd.Context(), providers, config.NewCredentialStore(cfg), logger)
			return tui.WriteModelList(cmd.OutOrStdout(), results)
		},
	}
}

// listAllModels lists every provider concurrently. Results keep the order of
// providers; a failing provider is reported in its entry, not as an error.
func listAllModels(ctx context.Context, providers []provider.Provider, creds llm.CredentialResolver, logger *zap.Logger) []tui.ProviderModels {
	results := make([]tui.ProviderModels, len(providers))

	p := pool.New().WithMaxGoroutines(len(providers) + 1)
	for i, prov := range providers {
		i, prov := i, prov
		p.Go(func() {
			results[i] = tui.ProviderModels{Provider: prov.Name()}

			credential := ""
			if provider.RequiresCredential(prov) {
				key, err := creds.Credential(ctx, prov.Name())
				if err != nil || key == "" {
					results[i].Err = &llm.MissingCredentialError{Provider: prov.Name(), Err: err}
					return
				}
				credential = key
			}

			models, err := prov.ListModels(ctx, credential)
			if err != nil {
				logger.Debug("listing models failed", zap.String("provider", prov.Name()), zap.Error(err))
				results[i].Err = fmt.Errorf("listing models: %w", err)
				return
			}
			results[i].Models = models
		})
	}
	p.Wait()

	return results
}
