package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/h9-tec/AI-agent-explained/pkg/tools/mcpserver"
)

func mcpCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol integration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the configured tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, err := openEngine(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			srv := mcpserver.New("ai-agent", version)
			if err := srv.RegisterToolBox(eng.Tools()); err != nil {
				return err
			}

			return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	})

	return cmd
}
