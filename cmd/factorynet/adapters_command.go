package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"factorynet/internal/adapters"
)

func newAdaptersCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "adapters",
		Short:       "List registered dataset adapters",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := adapters.DefaultRegistry().List()
			if jsonOutput {
				return writeJSON(cmd, infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{info.Name, strings.Join(info.Aliases, ", "), info.Summary})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Adapter", "Aliases", "Summary"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
