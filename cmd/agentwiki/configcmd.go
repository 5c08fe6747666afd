// cmd/agentwiki/configcmd.go
package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/julianshen/agentwiki/internal/tui"
)

func configCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Edit the configuration interactively",
		Long: `Open a form for the most common settings and save them to the config file.
With --print, write the effective configuration as TOML instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if printOnly {
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			form := tui.NewConfigForm(cfg, path)
			if err := form.Run(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the effective configuration and exit")

	return cmd
}
