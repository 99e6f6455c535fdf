package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

func toolsCmd(flags *globalFlags) *cobra.Command {
	var schema bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools agents can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, err := openEngine(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			printTools(cmd.OutOrStdout(), eng.Tools().Descriptors(), schema)
			return nil
		},
	}

	cmd.Flags().BoolVar(&schema, "schema", false, "print the JSON schema sent to the backend")

	return cmd
}

func printTools(w io.Writer, ds []toolbox.Descriptor, schema bool) {
	for _, d := range ds {
		params := make([]string, 0, len(d.Params))
		for _, p := range d.Params {
			name := p.Name
			if !p.Required {
				name += "?"
			}
			params = append(params, name)
		}

		fmt.Fprintf(w, "%s(%s)\n", toolNameStyle.Render(d.Name), strings.Join(params, ", "))
		if d.Description != "" {
			fmt.Fprintln(w, "  "+d.Description)
		}
		if schema {
			fmt.Fprintln(w, "  "+dimStyle.Render(string(d.JSONSchema())))
		}
	}
}
