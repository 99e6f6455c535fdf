package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/h9-tec/AI-agent-explained/pkg/engine"
)

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (API key masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg.Masked())
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(data); err != nil {
				return err
			}
			if cfg.Backend == engine.BackendLlamaCpp {
				fmt.Fprintf(out, "# start the local server with:\n# %s\n", cfg.LlamaServerCommand())
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the selected backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration is valid (backend: %s).\n", cfg.Backend)
			if cfg.Backend == engine.BackendLlamaCpp {
				fmt.Fprintf(out, "Serve the model with: %s\n", cfg.LlamaServerCommand())
			}
			return nil
		},
	})

	return cmd
}
