package main

import (
	"fmt"

	"github.com/argus-labs/ecsquery/internal/sim"
	"github.com/spf13/cobra"
)

// NewKeysCommand creates the keys command.
func NewKeysCommand(_ *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "keys",
		Short:        "Print the canonical key of every workload filter",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, keys, err := sim.Keys()
			if err != nil {
				return err
			}
			for i, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, keys[i])
			}
			return nil
		},
	}
	return cmd
}
